package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"janitor-hq/janitor/pkg/cli"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/looker"
)

var validateFlags struct {
	checkLooker bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides, validate them and
print the effective safety settings.

With --check-looker the credentials are also tried against the API.

Examples:
  janitor validate --config janitor.yaml
  janitor validate --check-looker`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkLooker, "check-looker", false, "log in to Looker with the configured credentials")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(configPath(cmd))
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", fe.Error())
			}
		}
		return cli.NewConfigError(cfgFile, err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  Looker:            %s\n", cfg.Looker.BaseURL)
	fmt.Fprintf(out, "  Soft delete after: %d days\n", cfg.Cleanup.SoftDeleteAfterDays)
	fmt.Fprintf(out, "  Hard delete after: %d days\n", cfg.Cleanup.HardDeleteAfterDays)
	fmt.Fprintf(out, "  Mode:              %s\n", deleteMode(cfg))
	if cfg.Notification.Enabled {
		fmt.Fprintf(out, "  Notify:            %s\n", cfg.Notification.Address)
	}

	if !validateFlags.checkLooker {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	sm, err := newSecretManager(&cfg.Secrets)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	lc := cfg.Looker
	if lc.ClientID, err = sm.Resolve(ctx, lc.ClientID); err != nil {
		return cli.NewCommandError("validate", err)
	}
	if lc.ClientSecret, err = sm.Resolve(ctx, lc.ClientSecret); err != nil {
		return cli.NewCommandError("validate", err)
	}

	client, err := looker.NewClient(lookerConfig(&lc))
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	defer client.Close()

	me, err := client.Me(ctx)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	fmt.Fprintf(out, "✓ Logged in to Looker as user %s\n", me.ID)
	return nil
}

func deleteMode(cfg *config.Config) string {
	switch {
	case cfg.Cleanup.DryRun:
		return "dry run (nothing is deleted)"
	case cfg.Cleanup.AllowIrreversibleDelete:
		return "soft and permanent deletes"
	default:
		return "soft deletes only"
	}
}
