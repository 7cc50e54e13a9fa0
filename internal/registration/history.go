package registration

import (
	"context"
	"time"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

// HistoryEntry is one stored snapshot. Changed names the fields that differ
// from the snapshot before it and is empty for the first one.
type HistoryEntry struct {
	RegistrationID string `json:"registration_id"`
	EmployeeID     string `json:"employee_id"`
	models.RegistrationFields
	SubmittedAt time.Time `json:"submitted_at"`
	Changed     []string  `json:"changed"`
}

// History returns the snapshots for a business key, newest first.
func (s *Synchronizer) History(ctx context.Context, employeeID string) ([]HistoryEntry, error) {
	if s.local == nil {
		return nil, ErrNoLocalStore
	}

	snapshots, err := s.local.History(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, len(snapshots))
	for i, h := range snapshots {
		entries[i] = HistoryEntry{
			RegistrationID:     h.RegistrationID,
			EmployeeID:         h.EmployeeID,
			RegistrationFields: h.RegistrationFields,
			SubmittedAt:        h.SubmittedAt,
			Changed:            []string{},
		}
		if i+1 < len(snapshots) {
			entries[i].Changed = changedFields(snapshots[i+1].RegistrationFields, h.RegistrationFields)
		}
	}
	return entries, nil
}

func changedFields(prev, cur models.RegistrationFields) []string {
	changed := []string{}
	if prev.Name != cur.Name {
		changed = append(changed, "name")
	}
	if prev.ContactInfo != cur.ContactInfo {
		changed = append(changed, "contact_info")
	}
	if prev.Dietary != cur.Dietary {
		changed = append(changed, "dietary")
	}
	if prev.ActivityInterest != cur.ActivityInterest {
		changed = append(changed, "activity_interest")
	}
	if prev.Carpool != cur.Carpool {
		changed = append(changed, "carpool")
	}
	return changed
}
