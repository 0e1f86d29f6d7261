package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/repository/migrate"
	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

func TestOpenDB_AutoMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", AutoMigrate: true}, logger.Nop())
	require.NoError(t, err)
	defer db.Close()

	status, err := migrate.NewMigrator(db).Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.True(t, s.Applied, s.Name)
	}
}

func TestOpenRedis(t *testing.T) {
	client, err := OpenRedis(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, NewBroker(client, logger.Nop()))

	mr := miniredis.RunT(t)
	client, err = OpenRedis(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.NotNil(t, NewBroker(client, logger.Nop()))
}

func TestNewBreaker_ReportsState(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	cb := NewBreaker("remote", 0, m, logger.Nop())

	fail := assert.AnError
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return fail }), fail)
	}
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), circuitbreaker.ErrOpen)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BreakerState.WithLabelValues("remote")))
}

func TestNewRAG(t *testing.T) {
	r, err := NewRAG(config.RAGConfig{TopK: 4}, config.RedisConfig{}, nil, nil, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, r)

	cfg := config.RAGConfig{TopK: 4, Env: config.RAGEnv{OpenAIAPIKey: "sk-test", PineconeAPIKey: "pc-test", RecordsDir: t.TempDir()}}
	r, err = NewRAG(cfg, config.RedisConfig{}, nil, nil, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.NotNil(t, r.Service)
	assert.NotNil(t, r.Indexer)
}
