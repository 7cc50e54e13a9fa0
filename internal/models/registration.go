package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the stored form of SubmittedAt. It sorts lexicographically,
// which the remote store's ordering relies on.
const TimestampLayout = "2006-01-02 15:04:05"

type CommutePreference string

const (
	CommuteNeedsRide  CommutePreference = "needs-ride"
	CommuteOffersRide CommutePreference = "offers-ride"
	CommuteSelfDrive  CommutePreference = "self-drive"
)

// Labels written by earlier versions of the registration form.
var legacyCommuteLabels = map[string]CommutePreference{
	"need a ride":     CommuteNeedsRide,
	"offering a ride": CommuteOffersRide,
	"self-drive":      CommuteSelfDrive,
}

func (c CommutePreference) Valid() bool {
	switch c {
	case CommuteNeedsRide, CommuteOffersRide, CommuteSelfDrive:
		return true
	}
	return false
}

// ParseCommutePreference accepts both the canonical values and the legacy form labels.
func ParseCommutePreference(s string) (CommutePreference, error) {
	c := CommutePreference(strings.TrimSpace(s))
	if c.Valid() {
		return c, nil
	}
	if legacy, ok := legacyCommuteLabels[strings.ToLower(string(c))]; ok {
		return legacy, nil
	}
	return "", fmt.Errorf("unknown commute preference %q", s)
}

// RegistrationFields are the user-editable fields. They are replaced wholesale on every submit.
type RegistrationFields struct {
	Name             string            `json:"name" validate:"required"`
	ContactInfo      string            `json:"contact_info" validate:"required"`
	Dietary          string            `json:"dietary"`
	ActivityInterest string            `json:"activity_interest"`
	Carpool          CommutePreference `json:"carpool" validate:"required,oneof=needs-ride offers-ride self-drive"`
}

// RegistrationInput is what a participant submits; id and timestamp are assigned on submit.
type RegistrationInput struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	RegistrationFields
}

// Registration is a single participant entry. EmployeeID is the business key used for
// de-duplication, ID is the opaque identifier and never changes once assigned.
type Registration struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	RegistrationFields
	SubmittedAt time.Time `json:"submitted_at"`
}

// RegistrationRecord is the local store row for a registration.
type RegistrationRecord struct {
	ID                 string `gorm:"primaryKey"`
	EmployeeID         string `gorm:"uniqueIndex"`
	RegistrationFields `gorm:"embedded"`
	SubmittedAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewRegistrationRecord(r Registration) RegistrationRecord {
	return RegistrationRecord{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		RegistrationFields: r.RegistrationFields,
		SubmittedAt:        r.SubmittedAt,
	}
}

func (r RegistrationRecord) Registration() Registration {
	return Registration{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		RegistrationFields: r.RegistrationFields,
		SubmittedAt:        r.SubmittedAt,
	}
}
