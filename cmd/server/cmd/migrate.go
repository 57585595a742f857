package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/storage/postgres"
)

var errNotPostgres = errors.New("migrations apply to the postgres backend only")

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the embedded PostgreSQL migrations.

The MongoDB and memory backends need no migrations; MongoDB indexes are
created when the server starts.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := migrationURL(opts)
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(dbURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := migrationURL(opts)
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(dbURL, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := migrationURL(opts)
			if err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(dbURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d (latest %d), dirty: %t\n", v, postgres.LatestSchemaVersion, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func migrationURL(opts *globalOptions) (string, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	if cfg.Store.Backend != config.BackendPostgres {
		return "", fmt.Errorf("%w (STORE_BACKEND=%s)", errNotPostgres, cfg.Store.Backend)
	}
	return cfg.Database.URL, nil
}
