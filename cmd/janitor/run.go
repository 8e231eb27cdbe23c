package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/cli"
	"janitor-hq/janitor/pkg/telemetry/logging"
)

var runFlags struct {
	dryRun            bool
	allowIrreversible bool
	softDays          int
	hardDays          int
	output            string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the soft delete and hard delete passes once",
	Long: `Run both cleanup passes once and print the result.

The soft delete pass trashes content not accessed for more than
--soft-days days. The hard delete pass permanently deletes content that has
been in the trash for more than --hard-days days. Flags override the
configuration file for this run only.

Examples:
  # Dry run with the configured thresholds
  janitor run

  # Actually trash content unused for 180 days
  janitor run --dry-run=false --soft-days 180

  # Permanently delete trashed content as well
  janitor run --dry-run=false --allow-irreversible-delete

  # Machine-readable report
  janitor run --output json`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", true, "send deleted=false on soft deletes and skip permanent deletes")
	runCmd.Flags().BoolVar(&runFlags.allowIrreversible, "allow-irreversible-delete", false, "allow permanent deletes when not in dry run")
	runCmd.Flags().IntVar(&runFlags.softDays, "soft-days", 0, "override cleanup.soft_delete_after_days")
	runCmd.Flags().IntVar(&runFlags.hardDays, "hard-days", 0, "override cleanup.hard_delete_after_days")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "output format: text, json, csv")
}

// applyRunFlags overrides cfg with the flags the user actually set.
func applyRunFlags(flags *pflag.FlagSet, cfg *cleanup.Config) error {
	if flags.Changed("dry-run") {
		cfg.DryRun = runFlags.dryRun
	}
	if flags.Changed("allow-irreversible-delete") {
		cfg.AllowIrreversibleDelete = runFlags.allowIrreversible
	}
	if flags.Changed("soft-days") {
		if runFlags.softDays < 0 {
			return cli.NewConfigError("--soft-days", "must not be negative")
		}
		cfg.SoftDeleteAfterDays = runFlags.softDays
	}
	if flags.Changed("hard-days") {
		if runFlags.hardDays < 0 {
			return cli.NewConfigError("--hard-days", "must not be negative")
		}
		cfg.HardDeleteAfterDays = runFlags.hardDays
	}
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pcfg := pipelineConfig(cfg)
	if err := applyRunFlags(cmd.Flags(), &pcfg); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	client, err := a.lookerClient(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer client.Close()

	ctx = logging.WithTrigger(ctx, "cli")
	if cfg.Schedule.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Schedule.RunTimeout)
		defer cancel()
	}

	report, runErr := a.pipeline(client, pcfg).Run(ctx)

	if err := a.metrics.Push(context.Background()); err != nil {
		a.logger.Warn("metrics push failed", "error", err)
	}

	if report != nil {
		if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.ReportView{Report: report}); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	return nil
}
