package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/gdg-garage/outing-registration-api/internal/auth"
	"github.com/gdg-garage/outing-registration-api/internal/models"
	"github.com/gdg-garage/outing-registration-api/internal/registration"
	"github.com/gdg-garage/outing-registration-api/internal/remote"
	"github.com/gdg-garage/outing-registration-api/internal/summary"
)

// Diagnoser reports whether the remote store settings are usable.
type Diagnoser interface {
	Diagnostics() remote.Diagnostics
}

type AdminHandler struct {
	sync        *registration.Synchronizer
	remote      Diagnoser
	analyst     *summary.Analyst
	authHandler *auth.AuthHandler
	log         zerolog.Logger
}

func NewAdminHandler(sync *registration.Synchronizer, remote Diagnoser, analyst *summary.Analyst, authHandler *auth.AuthHandler, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{sync: sync, remote: remote, analyst: analyst, authHandler: authHandler, log: log}
}

type LoginRequest struct {
	auth.AuthInput
	Body struct {
		Passcode string `json:"passcode" doc:"Organiser passcode"`
	}
}

type LoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message string `json:"message"`
	}
}

// HandleLogin exchanges the passcode for an admin session, keeping the
// registration id of any existing session.
func (h *AdminHandler) HandleLogin(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	if !h.authHandler.CheckPasscode(input.Body.Passcode) {
		h.log.Warn().Msg("admin login rejected")
		return nil, huma.Error401Unauthorized("Incorrect passcode")
	}

	claims := h.authHandler.Authorize(ctx, input.Cookie)
	cookie, err := h.authHandler.SessionCookie(claims.RegistrationID, true)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &LoginResponse{SetCookie: cookie}
	res.Body.Message = "Admin session started"
	return res, nil
}

type RegistrationsResponse struct {
	Body struct {
		State         string                `json:"state"`
		Source        string                `json:"source"`
		Count         int                   `json:"count"`
		Registrations []models.Registration `json:"registrations"`
	}
}

func (h *AdminHandler) HandleRegistrations(ctx context.Context, input *auth.AuthInput) (*RegistrationsResponse, error) {
	if err := auth.RequireAdmin(h.authHandler.Authorize(ctx, input.Cookie)); err != nil {
		return nil, err
	}

	regs := h.sync.Registrations()
	res := &RegistrationsResponse{}
	res.Body.State = h.sync.State().String()
	res.Body.Source = string(h.sync.Source())
	res.Body.Count = len(regs)
	res.Body.Registrations = regs
	return res, nil
}

type StatsResponse struct {
	Body registration.Stats
}

func (h *AdminHandler) HandleStats(ctx context.Context, input *auth.AuthInput) (*StatsResponse, error) {
	if err := auth.RequireAdmin(h.authHandler.Authorize(ctx, input.Cookie)); err != nil {
		return nil, err
	}
	return &StatsResponse{Body: h.sync.Stats()}, nil
}

type DiagnosticsResponse struct {
	Body struct {
		remote.Diagnostics
		State  string `json:"state"`
		Source string `json:"source"`
	}
}

func (h *AdminHandler) HandleDiagnostics(ctx context.Context, input *auth.AuthInput) (*DiagnosticsResponse, error) {
	if err := auth.RequireAdmin(h.authHandler.Authorize(ctx, input.Cookie)); err != nil {
		return nil, err
	}

	res := &DiagnosticsResponse{}
	res.Body.Diagnostics = h.remote.Diagnostics()
	res.Body.State = h.sync.State().String()
	res.Body.Source = string(h.sync.Source())
	return res, nil
}

type SummaryResponse struct {
	Body summary.Analysis
}

// HandleRunSummary asks the model for a fresh summary of the current
// registrations. Only one runs at a time.
func (h *AdminHandler) HandleRunSummary(ctx context.Context, input *auth.AuthInput) (*SummaryResponse, error) {
	if err := auth.RequireAdmin(h.authHandler.Authorize(ctx, input.Cookie)); err != nil {
		return nil, err
	}
	if h.sync.State() != registration.StateReady {
		return nil, registrationError(registration.ErrNotReady)
	}

	an, err := h.analyst.Run(ctx, h.sync.Registrations())
	switch {
	case errors.Is(err, summary.ErrBusy):
		return nil, huma.Error409Conflict("A summary is already being generated")
	case errors.Is(err, summary.ErrUnavailable):
		return nil, huma.Error503ServiceUnavailable("Summary model is not configured")
	case err != nil:
		h.log.Error().Err(err).Msg("summary failed")
		return nil, huma.Error502BadGateway("Summary model request failed")
	}
	return &SummaryResponse{Body: an}, nil
}

func (h *AdminHandler) HandleLatestSummary(ctx context.Context, input *auth.AuthInput) (*SummaryResponse, error) {
	if err := auth.RequireAdmin(h.authHandler.Authorize(ctx, input.Cookie)); err != nil {
		return nil, err
	}

	an, ok := h.analyst.Latest()
	if !ok {
		return nil, huma.Error404NotFound("No summary has been generated yet")
	}
	return &SummaryResponse{Body: an}, nil
}
