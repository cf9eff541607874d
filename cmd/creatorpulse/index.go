package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/config"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/dedupe"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/search"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/stream"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Consume archived content from kafka into the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadIndexer()
		if err != nil {
			logging.New().Error("failed to load configuration", "error", err.Error())
			return err
		}
		logger := logging.NewWithLevel(logging.ParseLevel(cfg.LogLevel))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		searchClient, err := search.New(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, logger)
		if err != nil {
			return err
		}
		if err := searchClient.EnsureIndex(ctx); err != nil {
			logger.Error("failed to prepare search index", "error", err.Error())
			return err
		}

		reader := stream.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		defer reader.Close()

		dlq := stream.NewDLQWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer dlq.Close()

		logger.Info("indexer ready",
			"topic", cfg.Kafka.Topic,
			"group_id", cfg.Kafka.GroupID,
			"index", cfg.Elasticsearch.Index,
		)

		indexer := stream.NewIndexer(reader, dlq, searchClient, dedupe.NewCache(100_000, 24*time.Hour), logger)
		return indexer.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
