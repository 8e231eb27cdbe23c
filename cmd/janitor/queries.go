package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/looker"
)

var queriesFlags struct {
	softDays int
	hardDays int
}

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the System Activity query definitions",
	Long: `Print the two query bodies sent to POST /queries as JSON, without
contacting Looker. Thresholds default to the configuration.

Examples:
  janitor queries
  janitor queries --soft-days 30 --hard-days 7`,
	RunE: printQueries,
}

func init() {
	rootCmd.AddCommand(queriesCmd)

	queriesCmd.Flags().IntVar(&queriesFlags.softDays, "soft-days", 0, "override cleanup.soft_delete_after_days")
	queriesCmd.Flags().IntVar(&queriesFlags.hardDays, "hard-days", 0, "override cleanup.hard_delete_after_days")
}

type queryDefinitions struct {
	Unused  *looker.WriteQuery `json:"unused_content"`
	Trashed *looker.WriteQuery `json:"trashed_content"`
}

func buildQueryDefinitions(softDays, hardDays int) (*queryDefinitions, error) {
	trashed, err := cleanup.TrashedContentQuery(hardDays)
	if err != nil {
		return nil, fmt.Errorf("failed to build trashed content query: %w", err)
	}
	return &queryDefinitions{
		Unused:  cleanup.UnusedContentQuery(softDays),
		Trashed: trashed,
	}, nil
}

func printQueries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	soft, hard := cfg.Cleanup.SoftDeleteAfterDays, cfg.Cleanup.HardDeleteAfterDays
	if cmd.Flags().Changed("soft-days") {
		soft = queriesFlags.softDays
	}
	if cmd.Flags().Changed("hard-days") {
		hard = queriesFlags.hardDays
	}

	defs, err := buildQueryDefinitions(soft, hard)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(defs)
}
