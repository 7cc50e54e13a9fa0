package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if path == MemoryPath {
		// Every new connection would get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.RegistrationRecord{}, &models.RegistrationHistory{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return db, nil
}

// LocalStore mirrors the collection on disk and keeps a snapshot per submit.
type LocalStore struct {
	db *gorm.DB
}

func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{db: db}
}

// LoadAll returns every stored registration, newest submission first.
func (s *LocalStore) LoadAll(ctx context.Context) ([]models.Registration, error) {
	var records []models.RegistrationRecord
	if err := s.db.WithContext(ctx).Order("submitted_at desc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}

	regs := make([]models.Registration, len(records))
	for i, r := range records {
		regs[i] = r.Registration()
	}
	return regs, nil
}

// Upsert writes reg keyed on the business key and appends a history snapshot,
// both in one transaction.
func (s *LocalStore) Upsert(ctx context.Context, reg models.Registration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.NewRegistrationRecord(reg)
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "contact_info", "dietary", "activity_interest", "carpool", "submitted_at", "updated_at",
			}),
		}).Create(&record).Error
		if err != nil {
			return fmt.Errorf("upsert registration: %w", err)
		}

		history := models.RegistrationHistory{
			RegistrationID:     reg.ID,
			EmployeeID:         reg.EmployeeID,
			RegistrationFields: reg.RegistrationFields,
			SubmittedAt:        reg.SubmittedAt,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("save history snapshot: %w", err)
		}

		return nil
	})
}

// History returns the snapshots for a business key, newest first.
func (s *LocalStore) History(ctx context.Context, employeeID string) ([]models.RegistrationHistory, error) {
	var entries []models.RegistrationHistory
	err := s.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at desc").
		Order("id desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}
