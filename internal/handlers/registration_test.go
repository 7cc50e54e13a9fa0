package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/outing-registration-api/internal/auth"
	"github.com/gdg-garage/outing-registration-api/internal/config"
	"github.com/gdg-garage/outing-registration-api/internal/database"
	"github.com/gdg-garage/outing-registration-api/internal/identity"
	"github.com/gdg-garage/outing-registration-api/internal/models"
	"github.com/gdg-garage/outing-registration-api/internal/registration"
)

type fakeRemote struct {
	saveErr error
	saved   int
}

func (f *fakeRemote) IsConfigured() bool { return true }

func (f *fakeRemote) FetchAll(ctx context.Context) []models.Registration { return nil }

func (f *fakeRemote) Save(ctx context.Context, reg models.Registration) error {
	f.saved++
	return f.saveErr
}

type recordingNotifier struct {
	created []bool
	err     error
}

func (n *recordingNotifier) NotifyRegistration(reg models.Registration, created bool) error {
	n.created = append(n.created, created)
	return n.err
}

func newAuth() *auth.AuthHandler {
	return auth.NewAuthHandler(&config.Config{JWTSecret: "test-secret", AdminPasscode: "letmein"})
}

func loadedSync(t *testing.T, remote registration.RemoteStore, opts ...registration.Option) *registration.Synchronizer {
	t.Helper()
	s := registration.New(remote, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func request(employeeID, name string) *RegistrationRequest {
	req := &RegistrationRequest{}
	req.Body.EmployeeID = employeeID
	req.Body.Name = name
	req.Body.ContactInfo = "555-0100"
	req.Body.Carpool = "Need a ride"
	return req
}

// cookieHeader turns Set-Cookie values into the Cookie header a browser would send back.
func cookieHeader(cookies []http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

func TestHandleRegister(t *testing.T) {
	sync := loadedSync(t, nil)
	n := &recordingNotifier{}
	handler := NewRegistrationHandler(sync, n, newAuth(), zerolog.Nop())

	req := request("E2001", "Dana")
	req.Body.Dietary = models.DietaryAllergy
	req.Body.DietaryNote = "shellfish"

	resp, err := handler.HandleRegister(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.Body.Created)
	assert.False(t, resp.Body.RemoteConfigured)
	assert.False(t, resp.Body.Synced)
	assert.Equal(t, "Allergy: shellfish", resp.Body.Registration.Dietary)
	assert.Equal(t, models.CommuteNeedsRide, resp.Body.Registration.Carpool)
	assert.Equal(t, registration.TicketToken(resp.Body.Registration.ID), resp.Body.Ticket)
	assert.Equal(t, []bool{true}, n.created)
	assert.Len(t, sync.Registrations(), 6)

	names := []string{}
	for _, c := range resp.SetCookie {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{identity.CookieName, auth.SessionCookieName}, names)

	// Same browser, same employee: the row is updated in place.
	update := request("E2001", "Dana K.")
	update.Cookie = cookieHeader(resp.SetCookie)
	resp2, err := handler.HandleRegister(context.Background(), update)
	require.NoError(t, err)

	assert.False(t, resp2.Body.Created)
	assert.Equal(t, resp.Body.Registration.ID, resp2.Body.Registration.ID)
	assert.Equal(t, "Dana K.", resp2.Body.Registration.Name)
	assert.Len(t, sync.Registrations(), 6)
	assert.Equal(t, []bool{true, false}, n.created)
}

func TestHandleRegister_RemoteFailureIsAccepted(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("connection refused")}
	sync := loadedSync(t, remote)
	handler := NewRegistrationHandler(sync, nil, newAuth(), zerolog.Nop())

	resp, err := handler.HandleRegister(context.Background(), request("E3001", "Eli"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.True(t, resp.Body.RemoteConfigured)
	assert.False(t, resp.Body.Synced)
	assert.Contains(t, resp.Body.Message, "connection refused")
	assert.Equal(t, 1, remote.saved)
	assert.Equal(t, "E3001", sync.Registrations()[0].EmployeeID)
}

func TestHandleRegister_Synced(t *testing.T) {
	remote := &fakeRemote{}
	handler := NewRegistrationHandler(loadedSync(t, remote), nil, newAuth(), zerolog.Nop())

	resp, err := handler.HandleRegister(context.Background(), request("E3002", "Fay"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.Body.Synced)
}

func TestHandleRegister_NotifierFailureDoesNotFailSubmit(t *testing.T) {
	n := &recordingNotifier{err: errors.New("discord down")}
	handler := NewRegistrationHandler(loadedSync(t, nil), n, newAuth(), zerolog.Nop())

	_, err := handler.HandleRegister(context.Background(), request("E3003", "Gus"))
	assert.NoError(t, err)
}

func TestHandleRegister_Validation(t *testing.T) {
	handler := NewRegistrationHandler(loadedSync(t, nil), nil, newAuth(), zerolog.Nop())

	req := request("E4001", "")
	req.Body.Carpool = "teleport"
	_, err := handler.HandleRegister(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "carpool must be one of")
}

func TestHandleRegister_NotLoaded(t *testing.T) {
	handler := NewRegistrationHandler(registration.New(nil), nil, newAuth(), zerolog.Nop())

	_, err := handler.HandleRegister(context.Background(), request("E5001", "Hal"))
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}

func TestHandleMe(t *testing.T) {
	sync := loadedSync(t, nil)
	a := newAuth()
	handler := NewRegistrationHandler(sync, nil, a, zerolog.Nop())

	t.Run("ByMarkerCookie", func(t *testing.T) {
		resp, err := handler.HandleMe(context.Background(), &auth.AuthInput{Cookie: identity.CookieName + "=" + identity.EncodeValue("E1002")})
		require.NoError(t, err)
		assert.Equal(t, "E1002", resp.Body.Registration.EmployeeID)
		assert.Equal(t, "MOCK-1", resp.Body.Ticket)
	})

	t.Run("BySessionClaims", func(t *testing.T) {
		ctx := auth.WithClaims(context.Background(), &auth.Claims{RegistrationID: "mock-3"})
		resp, err := handler.HandleMe(ctx, &auth.AuthInput{})
		require.NoError(t, err)
		assert.Equal(t, "mock-3", resp.Body.Registration.ID)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := handler.HandleMe(context.Background(), &auth.AuthInput{})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})
}

func TestHandleHistory(t *testing.T) {
	db, err := database.Connect(database.MemoryPath)
	require.NoError(t, err)
	sync := loadedSync(t, nil, registration.WithLocalStore(database.NewLocalStore(db)))
	handler := NewRegistrationHandler(sync, nil, newAuth(), zerolog.Nop())

	resp, err := handler.HandleRegister(context.Background(), request("E6001", "Ivy"))
	require.NoError(t, err)
	again := request("E6001", "Ivy")
	again.Body.ContactInfo = "555-0199"
	again.Cookie = cookieHeader(resp.SetCookie)
	_, err = handler.HandleRegister(context.Background(), again)
	require.NoError(t, err)

	history, err := handler.HandleHistory(context.Background(), &auth.AuthInput{Cookie: again.Cookie})
	require.NoError(t, err)
	require.Len(t, history.Body.History, 2)
	assert.Equal(t, "555-0199", history.Body.History[0].ContactInfo)
	assert.Equal(t, []string{"contact_info"}, history.Body.History[0].Changed)
}

func TestHandleHistory_WithoutLocalStore(t *testing.T) {
	handler := NewRegistrationHandler(loadedSync(t, nil), nil, newAuth(), zerolog.Nop())

	_, err := handler.HandleHistory(context.Background(), &auth.AuthInput{Cookie: identity.CookieName + "=" + identity.EncodeValue("E1001")})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotImplemented, statusOf(t, err))
}
