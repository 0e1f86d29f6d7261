package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrecords-api/internal/app"
	"github.com/jwalitptl/medrecords-api/internal/handler"
	audithandler "github.com/jwalitptl/medrecords-api/internal/handler/audit"
	authhandler "github.com/jwalitptl/medrecords-api/internal/handler/auth"
	patienthandler "github.com/jwalitptl/medrecords-api/internal/handler/patient"
	raghandler "github.com/jwalitptl/medrecords-api/internal/handler/rag"
	recordhandler "github.com/jwalitptl/medrecords-api/internal/handler/record"
	userhandler "github.com/jwalitptl/medrecords-api/internal/handler/user"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
	"github.com/jwalitptl/medrecords-api/internal/repository/sqlstore"
	"github.com/jwalitptl/medrecords-api/internal/router"
	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	authsvc "github.com/jwalitptl/medrecords-api/internal/service/auth"
	"github.com/jwalitptl/medrecords-api/internal/service/medical"
	"github.com/jwalitptl/medrecords-api/internal/service/patient"
	ragsvc "github.com/jwalitptl/medrecords-api/internal/service/rag"
	"github.com/jwalitptl/medrecords-api/internal/service/user"
	"github.com/jwalitptl/medrecords-api/pkg/auth"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/security"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer serves until ctx is cancelled, then drains for
// server.shutdown_timeout.
func runServer(ctx context.Context) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}

	db, err := app.OpenDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	store := sqlstore.NewStore(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, reg)

	redisClient, err := app.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Services
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	auditor := audit.NewService(store.Audit(), m)
	authService := authsvc.NewService(store.Users(), hasher, auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		cfg.Auth.CacheTTL, m, log)
	userService := user.NewService(store, hasher, auditor)
	patientService := patient.NewService(store, auditor)
	medicalService := medical.NewService(store, auditor)

	ragHandler := raghandler.NewHandler(nil, nil)
	ragComponents, err := app.NewRAG(cfg.RAG, cfg.Redis, redisClient, m, log)
	if err != nil {
		return fmt.Errorf("failed to set up document QA: %w", err)
	}
	if ragComponents != nil {
		reindexer := ragsvc.NewReindexer(app.NewBroker(redisClient, log), ragComponents.Indexer)
		ragHandler = raghandler.NewHandler(ragComponents.Service, reindexer)
	} else {
		log.Warn().Msg("OPENAI_API_KEY or PINECONE_API_KEY not set; document QA disabled")
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authService, m),
		router.Handlers{
			Base:     handler.NewHandler(store, reg),
			Users:    userhandler.NewHandler(userService),
			Patients: patienthandler.NewHandler(patientService),
			Records:  recordhandler.NewHandler(medicalService),
			RAG:      ragHandler,
			Audit:    audithandler.NewHandler(auditor),
			Token:    authhandler.NewHandler(authService),
		},
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig(cfg.CORS.AllowedOrigins),
			RequestTimeout:   cfg.Server.RequestTimeout,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
			MetricsPrefix:    cfg.Metrics.Namespace,
		},
		reg,
		log,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}

func corsConfig(origins []string) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		c.AllowOrigins = origins
	}
	return c
}
