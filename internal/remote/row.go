package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

var readLayouts = []string{models.TimestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05"}

// row is the table's wire shape.
type row struct {
	ID               json.RawMessage `json:"id,omitempty"`
	Name             string          `json:"name"`
	EmployeeID       string          `json:"employee_id"`
	ContactInfo      string          `json:"contact_info"`
	Dietary          string          `json:"dietary"`
	ActivityInterest string          `json:"activity_interest"`
	Carpool          string          `json:"carpool"`
	Timestamp        string          `json:"timestamp"`
}

func newRow(r models.Registration) row {
	id, _ := json.Marshal(r.ID)
	ts := ""
	if !r.SubmittedAt.IsZero() {
		ts = r.SubmittedAt.UTC().Format(models.TimestampLayout)
	}
	return row{
		ID:               id,
		Name:             r.Name,
		EmployeeID:       r.EmployeeID,
		ContactInfo:      r.ContactInfo,
		Dietary:          r.Dietary,
		ActivityInterest: r.ActivityInterest,
		Carpool:          string(r.Carpool),
		Timestamp:        ts,
	}
}

// registration maps a row into the model. The id may be a string or, when the
// store assigns it, a number. A row without an id falls back to one derived from
// the business key.
func (r row) registration() (models.Registration, error) {
	employeeID := strings.TrimSpace(r.EmployeeID)
	if employeeID == "" {
		return models.Registration{}, errors.New("row has no employee_id")
	}

	id, err := rowID(r.ID)
	if err != nil {
		return models.Registration{}, err
	}
	if id == "" {
		id = "emp-" + employeeID
	}

	carpool, err := models.ParseCommutePreference(r.Carpool)
	if err != nil {
		carpool = models.CommutePreference(r.Carpool)
	}

	return models.Registration{
		ID:         id,
		EmployeeID: employeeID,
		RegistrationFields: models.RegistrationFields{
			Name:             r.Name,
			ContactInfo:      r.ContactInfo,
			Dietary:          r.Dietary,
			ActivityInterest: r.ActivityInterest,
			Carpool:          carpool,
		},
		SubmittedAt: parseTimestamp(r.Timestamp),
	}, nil
}

func rowID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return id, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id is neither string nor number: %s", s)
	}
	return n.String(), nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
