package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"janitor-hq/janitor/pkg/cli"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/telemetry/logging"
)

const defaultConfigFile = "janitor.yaml"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Janitor - automated cleanup of unused Looker content",
	Long: `Janitor soft-deletes Looker dashboards and Looks that nobody has opened
for a configurable number of days, permanently deletes content that has sat in
the trash for a second threshold, and emails a CSV summary after each pass.

Both passes read the System Activity model. Runs are dry by default:
soft deletes send deleted=false and permanent deletes are skipped unless
cleanup.dry_run is false and cleanup.allow_irreversible_delete is true.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configPath returns the file to load. A missing default file is not an
// error: the configuration then comes from the environment alone.
func configPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return cfgFile
	}
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return cfgFile
}

// loadConfig initializes the global configuration and the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.Initialize(configPath(cmd)); err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	cfg := config.GetConfig()

	if err := setupLogging(cfg); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	logCfg := logging.FromConfig(&cfg.Telemetry.Logging)
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.Setup(logCfg)
}
