package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gdg-garage/outing-registration-api/internal/auth"
	appmiddleware "github.com/gdg-garage/outing-registration-api/internal/middleware"
)

// RegisterRoutes mounts the API on r. CORS is enabled when corsOrigins is non-empty.
func RegisterRoutes(r *chi.Mux, log zerolog.Logger, corsOrigins []string, authHandler *auth.AuthHandler, registrationHandler *RegistrationHandler, adminHandler *AdminHandler) huma.API {
	r.Use(middleware.RequestID)
	r.Use(appmiddleware.NewRequestLogger(log))
	r.Use(middleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(appmiddleware.NewCORSHandler(corsOrigins))
	}
	r.Use(authHandler.SessionMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("Outing Registration API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.SessionCookieName,
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	ok := func(o *huma.Operation) {
		o.DefaultStatus = http.StatusOK
	}
	admin := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
		o.Tags = []string{"admin"}
	}

	// Participant routes
	huma.Post(api, "/registrations", registrationHandler.HandleRegister, ok)
	huma.Get(api, "/registrations/me", registrationHandler.HandleMe)
	huma.Get(api, "/registrations/me/history", registrationHandler.HandleHistory)

	// Organiser routes
	huma.Post(api, "/admin/login", adminHandler.HandleLogin, ok)
	huma.Get(api, "/admin/registrations", adminHandler.HandleRegistrations, admin)
	huma.Get(api, "/admin/stats", adminHandler.HandleStats, admin)
	huma.Get(api, "/admin/diagnostics", adminHandler.HandleDiagnostics, admin)
	huma.Post(api, "/admin/summary", adminHandler.HandleRunSummary, ok, admin)
	huma.Get(api, "/admin/summary", adminHandler.HandleLatestSummary, admin)

	return api
}
