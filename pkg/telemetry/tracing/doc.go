// Package tracing sets up OpenTelemetry tracing for cleanup runs.
//
// When enabled, spans are exported over OTLP gRPC and the provider is
// installed globally. The cleanup pipeline and the Looker client obtain
// their tracers through otel.Tracer, so a run shows up as one trace:
//
//	cleanup.run
//	├── cleanup.pass (soft)
//	│   ├── looker.create_query
//	│   ├── looker.run_query
//	│   ├── looker.update_dashboard ...
//	│   └── looker.scheduled_plan_run_once
//	└── cleanup.pass (hard)
//
// Runs triggered over HTTP join the caller's trace through the W3C
// traceparent header (see HTTPMiddleware).
//
// Sampling strategies:
//   - always: sample every run
//   - never: sample nothing
//   - ratio: sample a fraction of runs (sample_ratio)
package tracing
