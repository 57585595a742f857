package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PredictChain/server/internal/audit"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/metrics"
)

var errFixturesInProduction = errors.New("fixture reset is disabled in production")

func newFixturesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage demo fixture data",
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Replace every stored event with the fixture set",
		Long: `Delete all events from the configured store and insert the fixture set
(three approved and two pending events). Refuses to run when ENVIRONMENT is
production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runFixturesReset(cmd, cfg)
		},
	}

	cmd.AddCommand(reset)
	return cmd
}

func runFixturesReset(cmd *cobra.Command, cfg config.Config) error {
	if cfg.IsProduction() {
		return errFixturesInProduction
	}

	logger := config.NewLogger(cfg.Logging)
	store, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() { _ = store.Close(cmd.Context()) }()

	repo, err := newRepository(cfg, store.Store, nil)
	if err != nil {
		return err
	}
	seeded, err := repo.ResetFixtures(cmd.Context())
	if err != nil {
		return err
	}

	metrics.FixtureResets.Inc()
	audit.NewLoggerWithZerolog(logger).Log(audit.Entry{
		Action: audit.ActionFixturesReset,
		Caller: "cli",
		Status: audit.StatusSuccess,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d events into %s\n", len(seeded), store.Name)
	return nil
}
