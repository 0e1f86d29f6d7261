package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/medrecords-api/internal/app"
	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/service/rag"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

func main() {
	var configFile string
	cmd := &cobra.Command{
		Use:          "medrecords-worker",
		Short:        "Keep the document index in sync with the records directory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to config file")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}).
		With().Str("component", "index_worker").Logger()

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

	components, err := app.NewRAG(cfg.RAG, cfg.Redis, redisClient, m, log)
	if err != nil {
		return err
	}
	if components == nil {
		return rag.ErrNotConfigured
	}

	syncIndex := func(ctx context.Context) {
		start := time.Now()
		res, err := components.Indexer.Sync(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("index sync failed")
			}
			return
		}
		log.Info().
			Int("indexed", res.Indexed).
			Int("removed", res.Removed).
			Int("unchanged", res.Unchanged).
			Dur("duration", time.Since(start)).
			Msg("index synced")
	}

	srv := healthServer(cfg.Worker.HealthPort, reg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	syncIndex(ctx)

	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		w := rag.NewWatcher(cfg.RAG.Env.RecordsDir, cfg.RAG.WatchDebounce, syncIndex, log)
		if err := w.Run(ctx); err != nil {
			errCh <- fmt.Errorf("watcher: %w", err)
		}
	}()

	if broker := app.NewBroker(redisClient, log); broker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rag.ListenForReindex(ctx, broker, syncIndex, log); err != nil {
				errCh <- fmt.Errorf("reindex listener: %w", err)
			}
		}()
	} else {
		log.Info().Msg("redis not configured; reindex requests are handled by the API")
	}

	log.Info().Str("dir", cfg.RAG.Env.RecordsDir).Msg("index worker started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("index worker stopping")
	}

	cancelRun()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info().Msg("index worker exited")
	return runErr
}

func healthServer(port int, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
