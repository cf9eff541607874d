package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/config"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/database"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

var (
	migrateStatus bool
	migrateDown   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New()

		dbConfig, err := config.LoadDatabase()
		if err != nil {
			logger.Error("failed to load configuration", "error", err.Error())
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		conn, err := database.New(ctx, dbConfig, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		migrator := database.NewMigrator(conn, logger)
		out := cmd.OutOrStdout()

		switch {
		case migrateDown:
			version, err := migrator.Rollback(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "reverted %s\n", version)
			return nil
		case !migrateStatus:
			if err := migrator.Run(ctx); err != nil {
				return err
			}
		}

		applied, err := migrator.GetAppliedMigrations(ctx)
		if err != nil {
			return err
		}
		pending, err := migrator.Pending(ctx)
		if err != nil {
			return err
		}
		for _, version := range applied {
			fmt.Fprintf(out, "%s applied\n", version)
		}
		for _, version := range pending {
			fmt.Fprintf(out, "%s pending\n", version)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "only list applied and pending migrations")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "revert the most recently applied migration")
	migrateCmd.MarkFlagsMutuallyExclusive("status", "down")
	rootCmd.AddCommand(migrateCmd)
}
