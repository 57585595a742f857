package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PredictChain/server/internal/loadtest"
)

type loadtestFlags struct {
	url         string
	profile     string
	rps         int
	duration    time.Duration
	readRatio   float64
	noRamp      bool
	wallets     []string
	adminWallet string
}

func newLoadtestCommand() *cobra.Command {
	f := &loadtestFlags{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Generate synthetic traffic against a running server",
		Long: `Replay a mix of catalogue reads, wallet submissions and (with --admin-wallet)
approvals against a running server, then print latency and error statistics.

Profiles: light, medium, heavy, burst. --rps, --duration, --read-ratio and
--no-ramp derive a custom run from the light profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadtest(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.url, "url", "http://localhost:3000", "base URL of the server under test")
	cmd.Flags().StringVar(&f.profile, "profile", string(loadtest.ProfileLight), "load profile")
	cmd.Flags().IntVar(&f.rps, "rps", 0, "requests per second (overrides profile)")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "steady-state duration (overrides profile)")
	cmd.Flags().Float64Var(&f.readRatio, "read-ratio", 0, "share of reads, 0.0-1.0 (overrides profile)")
	cmd.Flags().BoolVar(&f.noRamp, "no-ramp", false, "skip ramp-up and ramp-down")
	cmd.Flags().StringSliceVar(&f.wallets, "wallet", nil, "submitter wallet ids to rotate through")
	cmd.Flags().StringVar(&f.adminWallet, "admin-wallet", "", "allowlisted wallet used to approve submissions")
	return cmd
}

func (f *loadtestFlags) custom() bool {
	return f.rps > 0 || f.duration > 0 || f.readRatio > 0 || f.noRamp
}

func runLoadtest(cmd *cobra.Command, f *loadtestFlags) error {
	// Interrupting a run still prints the statistics gathered so far.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tester := loadtest.New(loadtest.Options{
		BaseURL:     f.url,
		Wallets:     f.wallets,
		AdminWallet: f.adminWallet,
		Out:         cmd.OutOrStdout(),
	})

	var (
		stats *loadtest.Statistics
		err   error
	)
	if f.custom() {
		cfg := loadtest.Profiles[loadtest.ProfileLight]
		if f.rps > 0 {
			cfg.RequestsPerSecond = f.rps
		}
		if f.duration > 0 {
			cfg.Duration = f.duration
		}
		if f.readRatio > 0 {
			cfg.ReadRatio = f.readRatio
		}
		if f.noRamp {
			cfg.RampUpTime, cfg.RampDownTime = 0, 0
		}
		stats, err = tester.RunConfig(ctx, cfg)
	} else {
		stats, err = tester.Run(ctx, loadtest.Profile(f.profile))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), stats.Report())
	return nil
}
