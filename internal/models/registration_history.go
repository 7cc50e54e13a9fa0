package models

import (
	"time"

	"gorm.io/gorm"
)

// RegistrationHistory is a snapshot of a registration taken on every submit.
type RegistrationHistory struct {
	gorm.Model
	RegistrationID     string `json:"registration_id" gorm:"index"`
	EmployeeID         string `json:"employee_id" gorm:"index"`
	RegistrationFields `gorm:"embedded"`
	SubmittedAt        time.Time `json:"submitted_at"`
}
