// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/orbitlabs/orbit-backend/internal/config"
	"github.com/orbitlabs/orbit-backend/internal/database"
	"github.com/orbitlabs/orbit-backend/internal/handler"
	"github.com/orbitlabs/orbit-backend/internal/ingest"
	"github.com/orbitlabs/orbit-backend/internal/llm"
	"github.com/orbitlabs/orbit-backend/internal/predicthq"
	"github.com/orbitlabs/orbit-backend/internal/service"
	"github.com/orbitlabs/orbit-backend/internal/session"
	"github.com/orbitlabs/orbit-backend/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	cfg := config.Load(logger)

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	// A missing database is not fatal: the external-API discovery path and
	// the chat proxy keep working, store-backed endpoints report errors.
	var (
		docStore     handler.Store
		storedSource service.CandidateSource
		profiles     service.ProfileReader = store.SeedProfiles{}
		eventWriter  ingest.EventWriter
	)
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database unavailable, running in degraded mode")
	} else {
		defer pool.Close()
		st := store.New(pool, logger)
		docStore = st
		storedSource = service.NewStoreSource(st, logger)
		profiles = st
		eventWriter = st
		logger.Info().Msg("connected to PostgreSQL")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	events := predicthq.NewClient(cfg.PredictHQ, cfg.Viewer, logger)
	chat := llm.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, llm.WithBaseURL(cfg.Gemini.BaseURL))

	svc := service.NewDiscovery(
		service.NewLiveSource(events),
		storedSource,
		profiles,
		session.NewStore(),
		logger,
	)
	h := handler.New(docStore, svc, chat, cfg.Chat.RequestsPerMinute, logger)

	// ── 3. Scheduled provider-to-store sync ──────────────────────────────
	if cfg.Ingest.Enabled && eventWriter != nil {
		syncer := ingest.NewSyncer(events, eventWriter, logger)
		cronRunner, err := syncer.Start(cfg.Ingest.CronSpec)
		if err != nil {
			logger.Error().Err(err).Str("spec", cfg.Ingest.CronSpec).Msg("ingest schedule invalid, sync disabled")
		} else {
			defer cronRunner.Stop()
			logger.Info().Str("spec", cfg.Ingest.CronSpec).Msg("ingest sync scheduled")
		}
	}

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.Instrument)
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Post("/validate", h.ValidateEvent)
			r.Get("/{id}/connections", h.ListConnections)
			r.Post("/{id}/connections", h.LogInterest)
			r.Delete("/{id}/connections/{userId}", h.RemoveInterest)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.SaveProfile)
			r.Get("/discovery/{bucket}", h.DiscoveryBucket)
			r.Post("/surprise-date", h.SelectSurpriseDate)
		})
	})

	r.Get("/ws/users/{id}/profile", h.ProfileSocket)
	r.Get("/ws/events/{id}/connections", h.ConnectionsSocket)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
