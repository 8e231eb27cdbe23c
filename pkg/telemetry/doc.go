// Package telemetry groups the observability packages of janitor.
//
//   - logging: structured slog setup with secret redaction and per-run
//     context attributes
//   - metrics: Prometheus collectors fed by cleanup reports and Looker API
//     calls, with optional Pushgateway delivery for one-shot runs
//   - tracing: OpenTelemetry spans around runs, passes and API calls,
//     exported over OTLP/gRPC
//   - health: liveness and readiness probes for the long-running service
//
// Each subpackage is configured from config.TelemetryConfig and is a no-op
// when its section is disabled.
package telemetry
