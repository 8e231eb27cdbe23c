package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"janitor-hq/janitor/pkg/audit"
	"janitor-hq/janitor/pkg/audit/export"
	"janitor-hq/janitor/pkg/audit/retention"
	"janitor-hq/janitor/pkg/cli"
	"janitor-hq/janitor/pkg/config"
)

var auditFlags struct {
	timeRange   string
	runID       string
	pass        string
	action      string
	contentType string
	contentID   string
	status      string
	limit       int
	offset      int
	sort        string
	format      string
	output      string

	days       int
	maxRecords int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and maintain the audit trail",
	Long: `Every run stores one record per pass, per mutation and per notification
in the audit store configured under audit:.

Subcommands:
  query   - list records with filters
  export  - stream records as JSON or CSV
  prune   - apply the retention policy now`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with filters. Records are listed newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-19T00:00:00Z"

Examples:
  # Everything a run did
  janitor audit query --run-id 5f0c2b1e-...

  # Failed permanent deletes
  janitor audit query --action hard_delete --status error

  # CSV for a spreadsheet
  janitor audit query --format csv --output audit.csv`,
	RunE: queryAudit,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Stream audit records as JSON or CSV",
	Long: `Export matching audit records oldest first without loading them all
into memory.

Examples:
  janitor audit export --format json --output audit.json
  janitor audit export --time-range "2026-01-01T00:00:00Z/2026-07-01T00:00:00Z" --format csv`,
	RunE: exportAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records past retention",
	Long: `Delete records older than audit.retention.days and, when
audit.retention.max_records is set, the oldest records beyond that count.

Examples:
  janitor audit prune
  janitor audit prune --days 30`,
	RunE: pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd, auditPruneCmd)

	for _, cmd := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		cmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().StringVar(&auditFlags.runID, "run-id", "", "filter by run id")
		cmd.Flags().StringVar(&auditFlags.pass, "pass", "", "filter by pass (soft, hard)")
		cmd.Flags().StringVar(&auditFlags.action, "action", "", "filter by action (pass, soft_delete, hard_delete, notify)")
		cmd.Flags().StringVar(&auditFlags.contentType, "content-type", "", "filter by content type (dashboard, look)")
		cmd.Flags().StringVar(&auditFlags.contentID, "content-id", "", "filter by content id")
		cmd.Flags().StringVar(&auditFlags.status, "status", "", "filter by status (success, error)")
		cmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results (0 for all)")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditQueryCmd.Flags().StringVar(&auditFlags.sort, "sort", audit.SortDesc, "sort order by timestamp: asc, desc")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditExportCmd.Flags().StringVar(&auditFlags.format, "format", "json", "output format: json, csv")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "override audit.retention.days")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", 0, "override audit.retention.max_records")
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (start, end *time.Time, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return nil, nil, cli.NewConfigError("--time-range", "invalid format (expected: start/end)")
	}

	st, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, nil, cli.NewConfigError("--time-range", fmt.Sprintf("invalid start time: %v", err))
	}
	et, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, nil, cli.NewConfigError("--time-range", fmt.Sprintf("invalid end time: %v", err))
	}
	if et.Before(st) {
		return nil, nil, cli.NewConfigError("--time-range", "end is before start")
	}
	return &st, &et, nil
}

// buildAuditQuery turns the filter flags into a query.
func buildAuditQuery() (*audit.Query, error) {
	q := &audit.Query{
		RunID:       auditFlags.runID,
		Pass:        auditFlags.pass,
		Action:      auditFlags.action,
		ContentType: auditFlags.contentType,
		ContentID:   auditFlags.contentID,
	}

	switch auditFlags.status {
	case "", audit.StatusSuccess, audit.StatusError:
		q.Status = auditFlags.status
	default:
		return nil, cli.NewConfigError("--status", fmt.Sprintf("unsupported status %q (success, error)", auditFlags.status))
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = start, end
	}
	return q, nil
}

// openAudit loads the configuration and opens the configured audit store.
func openAudit(cmd *cobra.Command) (*config.Config, audit.Storage, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Audit.Backend == "memory" {
		return nil, nil, cli.NewConfigError("audit.backend", "the memory backend does not persist records between runs")
	}
	store, err := openAuditStorage(&cfg.Audit)
	if err != nil {
		return nil, nil, cli.NewCommandError("audit", err)
	}
	return cfg, store, nil
}

// outputWriter returns the --output file or stdout.
func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if auditFlags.output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(auditFlags.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}
	query, err := buildAuditQuery()
	if err != nil {
		return err
	}
	query.Limit = auditFlags.limit
	query.Offset = auditFlags.offset
	query.SortOrder = auditFlags.sort

	_, store, err := openAudit(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}

	switch format {
	case cli.FormatJSON:
		err = export.NewJSONExporter(true).Export(cmd.Context(), records, w)
	case cli.FormatCSV:
		err = export.NewCSVExporter(true).Export(cmd.Context(), records, w)
	default:
		if len(records) == 0 {
			_, err = fmt.Fprintln(w, "No records found.")
		} else {
			err = cli.NewFormatter(cli.FormatText).FormatTo(w, cli.RecordsView(records))
		}
	}
	if err != nil {
		closeFn()
		return cli.NewCommandError("audit query", err)
	}
	return closeFn()
}

func exportAudit(cmd *cobra.Command, args []string) error {
	var exporter audit.Exporter
	switch auditFlags.format {
	case "json":
		exporter = export.NewJSONExporter(false)
	case "csv":
		exporter = export.NewCSVExporter(true)
	default:
		return cli.NewConfigError("--format", fmt.Sprintf("unsupported format %q (json, csv)", auditFlags.format))
	}

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}
	query.SortOrder = audit.SortAsc

	_, store, err := openAudit(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	recordsCh, errCh, err := store.QueryStream(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}

	w, closeFn, err := outputWriter(cmd)
	if err != nil {
		return err
	}

	if err := exporter.ExportStream(cmd.Context(), recordsCh, w); err != nil {
		closeFn()
		return cli.NewCommandError("audit export", err)
	}
	if err := <-errCh; err != nil {
		closeFn()
		return cli.NewCommandError("audit export", err)
	}
	return closeFn()
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, store, err := openAudit(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rc := &retention.Config{
		RetentionDays: cfg.Audit.Retention.Days,
		MaxRecords:    cfg.Audit.Retention.MaxRecords,
	}
	if cmd.Flags().Changed("days") {
		rc.RetentionDays = auditFlags.days
	}
	if cmd.Flags().Changed("max-records") {
		rc.MaxRecords = auditFlags.maxRecords
	}
	if rc.RetentionDays < 0 || rc.MaxRecords < 0 {
		return cli.NewConfigError("--days", "retention must not be negative")
	}

	deleted, err := retention.NewPruner(store, rc).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d audit records\n", deleted)
	return nil
}
