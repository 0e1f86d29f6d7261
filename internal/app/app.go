// Package app builds the long-lived components shared by the API server and
// the index worker from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/repository/migrate"
	"github.com/jwalitptl/medrecords-api/internal/repository/sqlstore"
	"github.com/jwalitptl/medrecords-api/internal/service/rag"
	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/medrecords-api/pkg/messaging/redis"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

// OpenDB connects to the configured database and applies pending migrations
// when database.auto_migrate is set.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlstore.NewDB(ctx, sqlstore.Options{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		n, err := migrate.NewMigrator(db).Up(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info().Int("applied", n).Str("driver", cfg.Driver).Msg("migrations applied")
	}
	return db, nil
}

// OpenRedis returns nil when no Redis URL is configured.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	return redisbroker.NewClient(ctx, redisbroker.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
}

// NewBroker returns nil when client is nil, so callers fall back to
// in-process reindexing.
func NewBroker(client *redis.Client, logger zerolog.Logger) messaging.Broker {
	if client == nil {
		return nil
	}
	return redisbroker.NewRedisBroker(client, logger)
}

// NewBreaker builds a circuit breaker that reports its state on m.
func NewBreaker(name string, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:    name,
		Timeout: timeout,
		OnStateChange: func(name string, state int) {
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(float64(state))
			}
			logger.Warn().Str("breaker", name).Int("state", state).Msg("circuit breaker state changed")
		},
	})
}

// RAG bundles the document QA components.
type RAG struct {
	Service *rag.Service
	Indexer *rag.Indexer
}

// NewRAG wires OpenAI and Pinecone behind their breakers. It returns nil
// when document QA is not configured. The manifest is kept in Redis when
// client is set.
func NewRAG(cfg config.RAGConfig, redisCfg config.RedisConfig, client *redis.Client, m *metrics.Metrics, logger zerolog.Logger) (*RAG, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	oa := rag.NewOpenAIClient(rag.OpenAIConfig{
		APIKey:         cfg.Env.OpenAIAPIKey,
		BaseURL:        cfg.Env.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		MaxTokens:      cfg.MaxTokens,
	}, NewBreaker("openai", cfg.BreakerTimeout, m, logger))

	store, err := rag.NewPineconeStore(rag.PineconeConfig{
		APIKey:    cfg.Env.PineconeAPIKey,
		IndexName: cfg.IndexName,
		Cloud:     cfg.Cloud,
		Region:    cfg.Region,
		Namespace: cfg.Namespace,
	}, NewBreaker("pinecone", cfg.BreakerTimeout, m, logger))
	if err != nil {
		return nil, err
	}

	manifest := rag.NewMemoryManifest()
	if client != nil {
		manifest = rag.NewRedisManifest(client, redisCfg.ManifestKey)
	}

	return &RAG{
		Service: rag.NewService(oa, store, oa, cfg.TopK, m, logger),
		Indexer: rag.NewIndexer(cfg.Env.RecordsDir, oa, store, manifest, m, logger),
	}, nil
}
