package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/gdg-garage/outing-registration-api/internal/auth"
	"github.com/gdg-garage/outing-registration-api/internal/identity"
	"github.com/gdg-garage/outing-registration-api/internal/models"
	"github.com/gdg-garage/outing-registration-api/internal/notifier"
	"github.com/gdg-garage/outing-registration-api/internal/registration"
)

type RegistrationHandler struct {
	sync        *registration.Synchronizer
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
	log         zerolog.Logger
}

func NewRegistrationHandler(sync *registration.Synchronizer, notifier notifier.Notifier, authHandler *auth.AuthHandler, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{sync: sync, notifier: notifier, authHandler: authHandler, log: log}
}

// Fields are optional at the schema level so that missing values are reported
// by the registration validator with field names.
type RegistrationRequest struct {
	auth.AuthInput
	Body struct {
		EmployeeID       string `json:"employee_id" required:"false" doc:"Employee ID, the de-duplication key"`
		Name             string `json:"name" required:"false" doc:"Full name"`
		ContactInfo      string `json:"contact_info" required:"false" doc:"Phone or email"`
		Dietary          string `json:"dietary,omitempty" doc:"None, Vegetarian, Halal, Allergy, Other or a composed \"Allergy: <note>\" value"`
		DietaryNote      string `json:"dietary_note,omitempty" doc:"Elaboration for Allergy or Other"`
		ActivityInterest string `json:"activity_interest,omitempty" doc:"Activity the participant is interested in"`
		Carpool          string `json:"carpool" required:"false" doc:"needs-ride, offers-ride or self-drive"`
	}
}

func (r *RegistrationRequest) input() models.RegistrationInput {
	dietary := r.Body.Dietary
	if r.Body.DietaryNote != "" {
		dietary = models.ComposeDietary(dietary, r.Body.DietaryNote)
	}
	return models.RegistrationInput{
		EmployeeID: r.Body.EmployeeID,
		RegistrationFields: models.RegistrationFields{
			Name:             r.Body.Name,
			ContactInfo:      r.Body.ContactInfo,
			Dietary:          dietary,
			ActivityInterest: r.Body.ActivityInterest,
			Carpool:          models.CommutePreference(r.Body.Carpool),
		},
	}
}

type RegistrationResponse struct {
	Status    int
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Registration     models.Registration `json:"registration"`
		Ticket           string              `json:"ticket"`
		Created          bool                `json:"created"`
		RemoteConfigured bool                `json:"remote_configured"`
		Synced           bool                `json:"synced"`
		Message          string              `json:"message"`
	}
}

// HandleRegister stores the submission. A failed remote save still answers
// with the updated registration, as 202 Accepted with synced=false.
func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	claims := h.authHandler.Authorize(ctx, input.Cookie)
	marker := identity.NewCookieMarker(input.Cookie)
	session := h.sync.Session(claims.RegistrationID, marker)

	out, err := session.Submit(ctx, input.input())
	if err != nil {
		return nil, registrationError(err)
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyRegistration(out.Registration, out.Created); err != nil {
			h.log.Warn().Err(err).Str("employee_id", out.Registration.EmployeeID).Msg("registration notification failed")
		}
	}

	res := &RegistrationResponse{Status: http.StatusOK}
	res.Body.Registration = out.Registration
	res.Body.Ticket = registration.TicketToken(out.Registration.ID)
	res.Body.Created = out.Created
	res.Body.RemoteConfigured = out.RemoteConfigured
	res.Body.Synced = out.Synced()
	res.Body.Message = "Registration processed successfully"
	if out.RemoteErr != nil {
		res.Status = http.StatusAccepted
		res.Body.Message = "Saved locally, but syncing with the shared store failed: " + out.RemoteErr.Error()
	}

	if c := marker.Cookie(); c != nil {
		res.SetCookie = append(res.SetCookie, *c)
	}
	sessionCookie, err := h.authHandler.SessionCookie(session.CurrentUserID(), claims.Admin)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to sign session token")
	} else {
		res.SetCookie = append(res.SetCookie, sessionCookie)
	}

	return res, nil
}

type MeResponse struct {
	Body struct {
		Registration models.Registration `json:"registration"`
		Ticket       string              `json:"ticket"`
	}
}

// HandleMe returns the registration this browser submitted, found by session
// id or by the identity marker cookie.
func (h *RegistrationHandler) HandleMe(ctx context.Context, input *auth.AuthInput) (*MeResponse, error) {
	reg, err := h.currentRegistration(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	res := &MeResponse{}
	res.Body.Registration = reg
	res.Body.Ticket = registration.TicketToken(reg.ID)
	return res, nil
}

type HistoryResponse struct {
	Body struct {
		History []registration.HistoryEntry `json:"history"`
	}
}

func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *auth.AuthInput) (*HistoryResponse, error) {
	reg, err := h.currentRegistration(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	history, err := h.sync.History(ctx, reg.EmployeeID)
	if err != nil {
		return nil, registrationError(err)
	}

	res := &HistoryResponse{}
	res.Body.History = history
	return res, nil
}

func (h *RegistrationHandler) currentRegistration(ctx context.Context, cookieHeader string) (models.Registration, error) {
	if h.sync.State() != registration.StateReady {
		return models.Registration{}, registrationError(registration.ErrNotReady)
	}

	claims := h.authHandler.Authorize(ctx, cookieHeader)
	session := h.sync.Session(claims.RegistrationID, identity.NewCookieMarker(cookieHeader))
	reg, ok := session.IdentifyCurrentUser()
	if !ok {
		return models.Registration{}, huma.Error404NotFound("No registration found for this browser")
	}
	return reg, nil
}

func registrationError(err error) error {
	switch {
	case errors.Is(err, registration.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, registration.ErrNotReady):
		return huma.Error503ServiceUnavailable("Registrations are still loading, try again shortly")
	case errors.Is(err, registration.ErrNoLocalStore):
		return huma.Error501NotImplemented("Registration history is not kept on this server")
	default:
		return huma.Error500InternalServerError("Failed to process registration: " + err.Error())
	}
}
