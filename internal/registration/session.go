package registration

import (
	"context"

	"github.com/gdg-garage/outing-registration-api/internal/identity"
	"github.com/gdg-garage/outing-registration-api/internal/metrics"
	"github.com/gdg-garage/outing-registration-api/internal/models"
)

// Session is one browser's view of the collection: the id it registered under
// during this session, if any, and its persisted identity marker.
type Session struct {
	sync          *Synchronizer
	currentUserID string
	marker        identity.Marker
}

// Outcome describes a submit. The collection is updated even when RemoteErr is set.
type Outcome struct {
	Registration     models.Registration
	Created          bool
	RemoteConfigured bool
	RemoteErr        error
}

// Synced reports whether the remote store holds the submitted values.
func (o Outcome) Synced() bool {
	return o.RemoteConfigured && o.RemoteErr == nil
}

func (ss *Session) CurrentUserID() string {
	return ss.currentUserID
}

// Submit stores a registration keyed on its business key. The in-memory
// update is optimistic and stays in place when the remote save fails; the
// failure is reported in the outcome, not as an error.
func (ss *Session) Submit(ctx context.Context, in models.RegistrationInput) (Outcome, error) {
	s := ss.sync

	in = normalizeInput(in)
	if err := s.validateInput(in); err != nil {
		return Outcome{}, err
	}

	reg, created, err := s.upsert(ss.currentUserID, in)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Registration: reg, Created: created}

	log := s.log.With().Str("id", reg.ID).Str("employee_id", reg.EmployeeID).Logger()

	if s.local != nil {
		if err := s.local.Upsert(ctx, reg); err != nil {
			log.Error().Err(err).Msg("write local store")
		}
	}

	if s.RemoteConfigured() {
		out.RemoteConfigured = true
		if err := s.remote.Save(ctx, reg); err != nil {
			out.RemoteErr = err
			log.Error().Err(err).Msg("remote save failed, local copy kept")
		}
	}

	ss.marker.Store(reg.EmployeeID)
	ss.currentUserID = reg.ID

	kind := "updated"
	if created {
		kind = "created"
	}
	metrics.Submissions.WithLabelValues(kind).Inc()
	log.Info().Str("kind", kind).Bool("synced", out.Synced()).Msg("registration submitted")

	return out, nil
}

// IdentifyCurrentUser returns the first row matching either the session id or
// the persisted business key.
func (ss *Session) IdentifyCurrentUser() (models.Registration, bool) {
	marker := ss.marker.Load()

	ss.sync.mu.RLock()
	defer ss.sync.mu.RUnlock()

	for _, r := range ss.sync.regs {
		if (ss.currentUserID != "" && r.ID == ss.currentUserID) || (marker != "" && r.EmployeeID == marker) {
			return r, true
		}
	}
	return models.Registration{}, false
}
