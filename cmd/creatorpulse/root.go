package main

import (
	"github.com/spf13/cobra"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/config"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

var rootCmd = &cobra.Command{
	Use:   "creatorpulse",
	Short: "CreatorPulse - trend detection and draft generation for content creators",
	Long: `CreatorPulse ingests content from a creator's sources (X, YouTube, blogs, RSS),
scores trending topics by momentum and drafts platform-specific posts about them.`,
	SilenceUsage: true,
}

// loadConfig reads the environment and builds a logger at the configured level.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logging.New().Error("failed to load configuration", "error", err.Error())
		return nil, nil, err
	}
	return cfg, logging.NewWithLevel(logging.ParseLevel(cfg.LogLevel)), nil
}
