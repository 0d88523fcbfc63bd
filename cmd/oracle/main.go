// Command oracle is the CLI entrypoint: one subcommand per pipeline stage
// (§6), built with spf13/cobra rather than a hand-rolled os.Args switch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartwallet/tracker/cmd/oracle/startup"
	"github.com/smartwallet/tracker/internal/tracker"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// Exit codes per §6: 0 success, 1 unretried wallet failure, 2 config error.
const (
	exitSuccess      = 0
	exitWalletFailed = 1
	exitConfigError  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return exitConfigError
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	app, err := startup.InitializeApplication(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", err, nil)
		return exitConfigError
	}
	defer app.Stop()

	exitCode := exitSuccess
	root := &cobra.Command{
		Use:   "oracle",
		Short: "smart wallet tracker: discovery, scoring and consensus pipeline",
	}

	root.AddCommand(
		discoveryCmd(app, &exitCode),
		scoringCmd(app, &exitCode),
		smartWalletsCmd(app, &exitCode),
		consensusCmd(app),
		trackingLiveCmd(app, &exitCode),
		backtestCmd(app),
		schedulerCmd(app),
	)

	if err := root.Execute(); err != nil {
		log.Error("command failed", err, nil)
		if exitCode == exitSuccess {
			exitCode = exitWalletFailed
		}
	}
	return exitCode
}

func discoveryCmd(app *startup.Application, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "discovery",
		Short: "seed new wallets and backfill their transfer history",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed, err := app.Orchestrator.RunDiscovery(cmd.Context())
			if err != nil {
				return err
			}
			if failed > 0 {
				*exitCode = exitWalletFailed
			}
			return nil
		},
	}
}

func scoringCmd(app *startup.Application, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "scoring",
		Short: "recompute token analytics and the composite score for active wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed, err := app.Orchestrator.RunScoring(cmd.Context())
			if err != nil {
				return err
			}
			if failed > 0 {
				*exitCode = exitWalletFailed
			}
			return nil
		},
	}
}

func smartWalletsCmd(app *startup.Application, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "smartwallets",
		Short: "elect smart wallets via tier analysis and threshold selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed, err := app.Orchestrator.RunSmartWallets(cmd.Context())
			if err != nil {
				return err
			}
			if failed > 0 {
				*exitCode = exitWalletFailed
			}
			return nil
		},
	}
}

func consensusCmd(app *startup.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "consensus",
		Short: "detect smart-wallet buy consensus on tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Orchestrator.RunConsensus(cmd.Context())
		},
	}
}

func trackingLiveCmd(app *startup.Application, exitCode *int) *cobra.Command {
	var balanceOnly, transactionsOnly bool
	var minUSD float64
	var hoursLookback int

	cmd := &cobra.Command{
		Use:   "tracking-live",
		Short: "diff smart wallet balances and rebuild affected token history",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tracker.Options{
				BalanceOnly:      balanceOnly,
				TransactionsOnly: transactionsOnly,
				MinUSD:           minUSD,
				HoursLookback:    hoursLookback,
				DeltaRelative:    app.Config().Tracking.DeltaRelative,
			}
			failed, err := app.Orchestrator.RunTrackingLive(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if failed > 0 {
				*exitCode = exitWalletFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&balanceOnly, "balance-only", false, "only diff balances, skip history rebuild")
	cmd.Flags().BoolVar(&transactionsOnly, "transactions-only", false, "only rebuild history, skip balance diffing")
	cmd.Flags().Float64Var(&minUSD, "min-usd", app.Config().Tracking.MinTokenValueUSD, "minimum USD value of a changed position to trigger a history rebuild")
	cmd.Flags().IntVar(&hoursLookback, "hours-lookback", app.Config().Tracking.HoursLookback, "lookback window override in hours")
	return cmd
}

func backtestCmd(app *startup.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "replay persisted analytics against the current tier grid, read-only",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Orchestrator.RunBacktest(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("backtest: %d wallets evaluated\n", len(results))
			return nil
		},
	}
}

func schedulerCmd(app *startup.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "run every stage on its own interval ticker plus the HTTP sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(app)
		},
	}
}

// runScheduler implements the `scheduler` command (§6): discovery daily,
// scoring hourly, smartwallets hourly, consensus every 10 min, tracking-live
// every 2h, plus the HTTP sidecar — generalized from the teacher's
// Application.Start/Stop lifecycle into per-stage tickers inside one process.
func runScheduler(app *startup.Application) error {
	app.StartAPI()

	ctx := app.Context()
	tickers := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{"discovery", 24 * time.Hour, func(ctx context.Context) error {
			_, err := app.Orchestrator.RunDiscovery(ctx)
			return err
		}},
		{"scoring", time.Hour, func(ctx context.Context) error {
			_, err := app.Orchestrator.RunScoring(ctx)
			return err
		}},
		{"smartwallets", time.Hour, func(ctx context.Context) error {
			_, err := app.Orchestrator.RunSmartWallets(ctx)
			return err
		}},
		{"consensus", 10 * time.Minute, app.Orchestrator.RunConsensus},
		{"tracking-live", 2 * time.Hour, func(ctx context.Context) error {
			opts := tracker.Options{
				DeltaRelative: app.Config().Tracking.DeltaRelative,
				HoursLookback: app.Config().Tracking.HoursLookback,
				MinUSD:        app.Config().Tracking.MinTokenValueUSD,
			}
			_, err := app.Orchestrator.RunTrackingLive(ctx, opts)
			return err
		}},
	}

	for _, t := range tickers {
		t := t
		go func() {
			ticker := time.NewTicker(t.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := t.run(ctx); err != nil {
						fmt.Fprintf(os.Stderr, "%s stage failed: %v\n", t.name, err)
					}
				}
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	return nil
}
