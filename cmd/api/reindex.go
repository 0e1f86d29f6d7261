package main

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/medrecords-api/internal/app"
	ragsvc "github.com/jwalitptl/medrecords-api/internal/service/rag"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Sync the documents directory into the vector index once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			redisClient, err := app.OpenRedis(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			if redisClient != nil {
				defer redisClient.Close()
			}

			m := metrics.New(cfg.Metrics.Namespace, prometheus.NewRegistry())
			components, err := app.NewRAG(cfg.RAG, cfg.Redis, redisClient, m, log)
			if err != nil {
				return err
			}
			if components == nil {
				return ragsvc.ErrNotConfigured
			}

			res, err := components.Indexer.Sync(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
