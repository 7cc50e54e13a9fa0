package registration

import (
	"github.com/gdg-garage/outing-registration-api/internal/models"
)

// Stats is the aggregate view shown to the organiser.
type Stats struct {
	Total     int            `json:"total"`
	ByDietary map[string]int `json:"by_dietary"`
	ByCommute map[string]int `json:"by_commute"`
	// DietaryNotes lists the free-text elaborations, e.g. the allergy itself.
	DietaryNotes []string `json:"dietary_notes"`
	// RideBalance is offers minus needs; negative means people without a ride.
	RideBalance          int `json:"ride_balance"`
	WithActivityInterest int `json:"with_activity_interest"`
}

func Aggregate(regs []models.Registration) Stats {
	st := Stats{
		Total:        len(regs),
		ByDietary:    map[string]int{},
		ByCommute:    map[string]int{},
		DietaryNotes: []string{},
	}
	for _, r := range regs {
		category, note := models.SplitDietary(r.Dietary)
		st.ByDietary[category]++
		if note != "" {
			st.DietaryNotes = append(st.DietaryNotes, r.Name+": "+note)
		}

		st.ByCommute[string(r.Carpool)]++
		switch r.Carpool {
		case models.CommuteOffersRide:
			st.RideBalance++
		case models.CommuteNeedsRide:
			st.RideBalance--
		}

		if r.ActivityInterest != "" {
			st.WithActivityInterest++
		}
	}
	return st
}

func (s *Synchronizer) Stats() Stats {
	return Aggregate(s.Registrations())
}
