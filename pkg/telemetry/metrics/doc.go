// Package metrics provides Prometheus metrics for cleanup runs.
//
// # Metrics
//
// With the default namespace "janitor" and subsystem "cleanup":
//
//   - janitor_cleanup_runs_total{status}: runs by outcome (success, partial, failed)
//   - janitor_cleanup_run_duration_seconds: wall time of a run
//   - janitor_cleanup_last_run_timestamp_seconds: when the last run finished
//   - janitor_cleanup_last_success_timestamp_seconds: when the last fully successful run finished
//   - janitor_cleanup_pass_rows{pass}: rows returned by the pass query in the last run
//   - janitor_cleanup_pass_failures_total{pass,stage}: passes aborted at build or run
//   - janitor_cleanup_mutations_total{action,content_type,result}: soft and hard deletes
//   - janitor_cleanup_notifications_total{pass,result}: summary emails
//   - janitor_cleanup_api_requests_total{operation,status}: Looker API calls
//   - janitor_cleanup_api_request_duration_seconds{operation}: Looker API latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	client.SetObserver(collector.ObserveAPIRequest)
//	pipeline := cleanup.NewPipeline(client, pcfg, cleanup.WithHook(collector.RecordReport))
//	http.Handle("/metrics", collector.Handler())
//
// One-shot runs have nothing to scrape them; Push sends the registry to a
// Prometheus Pushgateway instead.
package metrics
