package database

import (
	"context"
	"testing"
	"time"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	db, err := Connect(MemoryPath)
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	return NewLocalStore(db)
}

func registration(id, employeeID, contact string, at time.Time) models.Registration {
	return models.Registration{
		ID:         id,
		EmployeeID: employeeID,
		RegistrationFields: models.RegistrationFields{
			Name:        "Participant " + employeeID,
			ContactInfo: contact,
			Dietary:     models.DietaryNone,
			Carpool:     models.CommuteSelfDrive,
		},
		SubmittedAt: at,
	}
}

func TestLocalStore_UpsertByBusinessKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

	if err := store.Upsert(ctx, registration("user-1", "E1", "111", base)); err != nil {
		t.Fatalf("first Upsert returned error: %v", err)
	}
	if err := store.Upsert(ctx, registration("user-1", "E1", "999", base.Add(time.Hour))); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}
	if err := store.Upsert(ctx, registration("user-2", "E2", "222", base.Add(30*time.Minute))); err != nil {
		t.Fatalf("third Upsert returned error: %v", err)
	}

	regs, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll returned error: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(regs))
	}

	// Newest submission first.
	if regs[0].EmployeeID != "E1" || regs[0].ContactInfo != "999" {
		t.Errorf("expected updated E1 first, got %+v", regs[0])
	}
	if regs[0].ID != "user-1" {
		t.Errorf("expected id to be preserved, got %q", regs[0].ID)
	}
	if regs[1].EmployeeID != "E2" {
		t.Errorf("expected E2 second, got %q", regs[1].EmployeeID)
	}
}

func TestLocalStore_History(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

	for i, contact := range []string{"111", "222", "333"} {
		if err := store.Upsert(ctx, registration("user-1", "E1", contact, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Upsert %d returned error: %v", i, err)
		}
	}
	if err := store.Upsert(ctx, registration("user-2", "E2", "x", base)); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	history, err := store.History(ctx, "E1")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if history[0].ContactInfo != "333" || history[2].ContactInfo != "111" {
		t.Errorf("expected newest first, got %q ... %q", history[0].ContactInfo, history[2].ContactInfo)
	}
	for _, h := range history {
		if h.RegistrationID != "user-1" {
			t.Errorf("expected registration id user-1, got %q", h.RegistrationID)
		}
	}
}
