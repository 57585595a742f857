package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PredictChain/server/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "server",
		Short: "PredictChain server - prediction-market event listing backend",
		Long: `PredictChain server lists prediction-market events and runs the review
workflow behind them.

Anyone identified by a wallet address can submit an event. Submissions stay
pending until an allowlisted administrator approves them with the event's
on-chain public key; approved events are listed publicly.

Events are stored in PostgreSQL, MongoDB or process memory (STORE_BACKEND).`,
		SilenceUsage: true,
		// Serve when no subcommand is given.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveFlags{})
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (environment variables take precedence)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newFixturesCommand(opts),
		newHealthcheckCommand(),
		newLoadtestCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}
