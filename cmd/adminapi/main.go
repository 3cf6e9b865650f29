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
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veloria/admin-api/config"
	"github.com/veloria/admin-api/internal/middleware"
	"github.com/veloria/admin-api/internal/services/adminauth"
	"github.com/veloria/admin-api/pkg/database"
	"github.com/veloria/admin-api/pkg/encryption"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()
	log.Info().Msg("Connected to PostgreSQL")

	// The replay guard degrades to a no-op without Redis; single-use
	// challenges still hold, only the cross-challenge code reuse
	// window opens up.
	replay := adminauth.NewNopReplayGuard()
	if redisClient, err := database.NewRedisClient(cfg.Redis.URL); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without OTP replay guard")
	} else {
		defer redisClient.Close()
		log.Info().Msg("Connected to Redis")
		replay = adminauth.NewRedisReplayGuard(redisClient)
	}

	// Cipher for TOTP secrets at rest
	cipher, err := encryption.NewCipherFromHex(cfg.Encryption.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load encryption key")
	}

	// Initialize service and handler
	authService := adminauth.NewService(adminauth.Config{
		Store:        adminauth.NewPostgresStore(db),
		Replay:       replay,
		Cipher:       cipher,
		Issuer:       cfg.TwoFactor.Issuer,
		ChallengeTTL: cfg.TwoFactor.ChallengeTTL,
	})
	authHandler := adminauth.NewHandler(authService)

	// Reap expired login challenges in the background
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go authService.RunChallengeReaper(reaperCtx, cfg.TwoFactor.ReapInterval)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(chimiddleware.RedirectSlashes)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Origin"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Debug:            cfg.Environment == "development",
	}))

	// Security headers
	r.Use(middleware.SecurityHeadersMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/admin/auth", authHandler.Routes())
	})

	// Service-to-service routes, not exposed through the public
	// gateway.
	r.Mount("/internal", authHandler.InternalRoutes(cfg.Internal.Token))

	// Create HTTP server
	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.Port,
		Handler: r,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting admin auth API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
