package registration

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedRow struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	EmployeeID       string `yaml:"employee_id"`
	ContactInfo      string `yaml:"contact_info"`
	Dietary          string `yaml:"dietary"`
	ActivityInterest string `yaml:"activity_interest"`
	Carpool          string `yaml:"carpool"`
	SubmittedAt      string `yaml:"submitted_at"`
}

// SeedRegistrations returns the bundled sample rows in file order.
func SeedRegistrations() ([]models.Registration, error) {
	return parseSeed(seedYAML)
}

func parseSeed(data []byte) ([]models.Registration, error) {
	var rows []seedRow
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	regs := make([]models.Registration, 0, len(rows))
	for i, r := range rows {
		carpool, err := models.ParseCommutePreference(r.Carpool)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		at, err := time.Parse(models.TimestampLayout, r.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: submitted_at: %w", i, err)
		}
		if r.ID == "" || r.EmployeeID == "" {
			return nil, fmt.Errorf("seed row %d: id and employee_id are required", i)
		}
		regs = append(regs, models.Registration{
			ID:         r.ID,
			EmployeeID: r.EmployeeID,
			RegistrationFields: models.RegistrationFields{
				Name:             r.Name,
				ContactInfo:      r.ContactInfo,
				Dietary:          r.Dietary,
				ActivityInterest: r.ActivityInterest,
				Carpool:          carpool,
			},
			SubmittedAt: at,
		})
	}
	return regs, nil
}
