package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gdg-garage/outing-registration-api/internal/auth"
	"github.com/gdg-garage/outing-registration-api/internal/config"
	"github.com/gdg-garage/outing-registration-api/internal/database"
	"github.com/gdg-garage/outing-registration-api/internal/handlers"
	"github.com/gdg-garage/outing-registration-api/internal/logging"
	"github.com/gdg-garage/outing-registration-api/internal/notifier"
	"github.com/gdg-garage/outing-registration-api/internal/registration"
	"github.com/gdg-garage/outing-registration-api/internal/remote"
	"github.com/gdg-garage/outing-registration-api/internal/summary"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "outing-registration-api",
		Short:        "Registration service for the company outing",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Load registrations and serve the HTTP API",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "diagnostics",
		Short: "Check the remote store settings and exit non-zero when they are unusable",
		RunE:  runDiagnostics,
	})

	return root
}

func newRemoteClient(cfg *config.Config, log zerolog.Logger) *remote.Client {
	return remote.NewClient(remote.Config{
		URL:     cfg.SupabaseURL,
		APIKey:  cfg.SupabaseAnonKey,
		Table:   cfg.SupabaseTable,
		Timeout: cfg.RemoteTimeout,
	}, remote.WithLogger(log))
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []registration.Option{registration.WithLogger(log)}
	if cfg.DatabasePath != "" {
		db, err := database.Connect(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open local store: %w", err)
		}
		opts = append(opts, registration.WithLocalStore(database.NewLocalStore(db)))
	}

	remoteClient := newRemoteClient(cfg, log)
	if d := remoteClient.Diagnostics(); !d.Valid {
		log.Warn().Strs("issues", d.Issues).Msg("remote store not configured, submissions stay local")
	}

	sync := registration.New(remoteClient, opts...)
	if err := sync.Load(ctx); err != nil {
		return fmt.Errorf("load registrations: %w", err)
	}

	var n notifier.Notifier
	if discord, err := notifier.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordNotificationsChannelID, log); err != nil {
		log.Info().Err(err).Msg("discord notifier not initialized")
	} else {
		n = discord
	}

	summarizer := summary.NewClient(summary.Config{
		BaseURL: cfg.SummaryAPIURL,
		APIKey:  cfg.SummaryAPIKey,
		Model:   cfg.SummaryModel,
	}, summary.WithLogger(log))
	if !summarizer.Configured() {
		log.Info().Msg("summary model not configured")
	}

	authHandler := auth.NewAuthHandler(cfg)
	registrationHandler := handlers.NewRegistrationHandler(sync, n, authHandler, log)
	adminHandler := handlers.NewAdminHandler(sync, remoteClient, summary.NewAnalyst(summarizer), authHandler, log)

	var corsOrigins []string
	if cfg.EnableCORS {
		corsOrigins = cfg.CORSOrigins
	}

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, log, corsOrigins, authHandler, registrationHandler, adminHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	d := newRemoteClient(cfg, zerolog.Nop()).Diagnostics()
	out := cmd.OutOrStdout()
	if d.Valid {
		fmt.Fprintln(out, "remote store settings look valid")
		return nil
	}
	for _, issue := range d.Issues {
		fmt.Fprintln(out, "- "+issue)
	}
	return errors.New("remote store settings are not usable")
}
