// Package registration owns the in-memory registration collection and keeps it
// in step with the local store, the remote store and each browser's identity.
package registration

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gdg-garage/outing-registration-api/internal/identity"
	"github.com/gdg-garage/outing-registration-api/internal/metrics"
	"github.com/gdg-garage/outing-registration-api/internal/models"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotReady     = errors.New("registrations not loaded yet")
	ErrNoLocalStore = errors.New("local store not configured")
)

// RemoteStore is the hosted copy of the collection.
type RemoteStore interface {
	IsConfigured() bool
	FetchAll(ctx context.Context) []models.Registration
	Save(ctx context.Context, reg models.Registration) error
}

// LocalStore is the on-disk copy of the collection.
type LocalStore interface {
	LoadAll(ctx context.Context) ([]models.Registration, error)
	Upsert(ctx context.Context, reg models.Registration) error
	History(ctx context.Context, employeeID string) ([]models.RegistrationHistory, error)
}

type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "uninitialized"
}

// Source tells where the collection was loaded from.
type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceSeed   Source = "seed"
)

type Synchronizer struct {
	remote   RemoteStore
	local    LocalStore
	seed     func() ([]models.Registration, error)
	log      zerolog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string

	loadMu sync.Mutex

	mu     sync.RWMutex
	state  State
	source Source
	regs   []models.Registration
}

type Option func(*Synchronizer)

// WithLocalStore enables the on-disk copy. Without it the collection lives in memory only.
func WithLocalStore(local LocalStore) Option {
	return func(s *Synchronizer) {
		s.local = local
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Synchronizer) {
		s.log = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Synchronizer) {
		s.newID = newID
	}
}

func WithSeed(seed func() ([]models.Registration, error)) Option {
	return func(s *Synchronizer) {
		s.seed = seed
	}
}

func New(remote RemoteStore, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:   remote,
		seed:     SeedRegistrations,
		log:      zerolog.Nop(),
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return "user-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "synchronizer").Logger()
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load moves the synchronizer from Uninitialized to Ready. The remote store
// wins when it is configured and returns rows, then the local store, then the
// bundled seed rows. An empty remote store and a failed fetch look the same.
// Calls after the first successful load are no-ops.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.State() == StateReady {
		return nil
	}
	s.setState(StateLoading)

	regs, source, err := s.fetchInitial(ctx)
	if err != nil {
		s.setState(StateUninitialized)
		return err
	}

	s.mu.Lock()
	s.regs = uniqueByEmployeeID(regs)
	s.source = source
	s.state = StateReady
	count := len(s.regs)
	s.mu.Unlock()

	metrics.LoadSource.WithLabelValues(string(source)).Inc()
	s.log.Info().Str("source", string(source)).Int("count", count).Msg("registrations loaded")
	return nil
}

func (s *Synchronizer) fetchInitial(ctx context.Context) ([]models.Registration, Source, error) {
	if s.remote != nil && s.remote.IsConfigured() {
		if regs := s.remote.FetchAll(ctx); len(regs) > 0 {
			return regs, SourceRemote, nil
		}
		s.log.Warn().Msg("remote store returned no rows")
	}

	if s.local != nil {
		regs, err := s.local.LoadAll(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("load local store")
		} else if len(regs) > 0 {
			return regs, SourceLocal, nil
		}
	}

	regs, err := s.seed()
	if err != nil {
		return nil, SourceNone, fmt.Errorf("load seed data: %w", err)
	}
	return regs, SourceSeed, nil
}

func (s *Synchronizer) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Synchronizer) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// RemoteConfigured reports whether submits will be pushed to the remote store.
func (s *Synchronizer) RemoteConfigured() bool {
	return s.remote != nil && s.remote.IsConfigured()
}

// Registrations returns a copy of the collection in display order.
func (s *Synchronizer) Registrations() []models.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Registration, len(s.regs))
	copy(out, s.regs)
	return out
}

// Session binds the per-browser identity to the shared collection.
func (s *Synchronizer) Session(currentUserID string, marker identity.Marker) *Session {
	if marker == nil {
		marker = identity.NewMemoryMarker("")
	}
	return &Session{sync: s, currentUserID: currentUserID, marker: marker}
}

// upsert replaces the row with the same business key in place, keeping its id,
// or prepends a new row. A new row takes the session's id unless another row
// already holds it.
func (s *Synchronizer) upsert(sessionID string, in models.RegistrationInput) (models.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return models.Registration{}, false, ErrNotReady
	}

	reg := models.Registration{
		EmployeeID:         in.EmployeeID,
		RegistrationFields: in.RegistrationFields,
		SubmittedAt:        s.now(),
	}

	if i := s.indexOf(func(r models.Registration) bool { return r.EmployeeID == in.EmployeeID }); i >= 0 {
		reg.ID = s.regs[i].ID
		s.regs[i] = reg
		return reg, false, nil
	}

	reg.ID = sessionID
	if reg.ID == "" || s.indexOf(func(r models.Registration) bool { return r.ID == sessionID }) >= 0 {
		reg.ID = s.newID()
	}
	s.regs = append([]models.Registration{reg}, s.regs...)
	return reg, true, nil
}

func (s *Synchronizer) indexOf(match func(models.Registration) bool) int {
	for i, r := range s.regs {
		if match(r) {
			return i
		}
	}
	return -1
}

func (s *Synchronizer) validateInput(in models.RegistrationInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// normalizeInput trims free text and maps legacy commute labels.
func normalizeInput(in models.RegistrationInput) models.RegistrationInput {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Name = strings.TrimSpace(in.Name)
	in.ContactInfo = strings.TrimSpace(in.ContactInfo)
	in.ActivityInterest = strings.TrimSpace(in.ActivityInterest)
	in.Dietary = strings.TrimSpace(in.Dietary)
	if in.Dietary == "" {
		in.Dietary = models.DietaryNone
	}
	if c, err := models.ParseCommutePreference(string(in.Carpool)); err == nil {
		in.Carpool = c
	}
	return in
}

// uniqueByEmployeeID keeps the first row per business key.
func uniqueByEmployeeID(regs []models.Registration) []models.Registration {
	seen := make(map[string]struct{}, len(regs))
	out := make([]models.Registration, 0, len(regs))
	for _, r := range regs {
		if _, dup := seen[r.EmployeeID]; dup {
			continue
		}
		seen[r.EmployeeID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// TicketToken is the short code printed on a participant's ticket.
func TicketToken(id string) string {
	runes := []rune(id)
	if len(runes) > 6 {
		runes = runes[len(runes)-6:]
	}
	return strings.ToUpper(string(runes))
}
