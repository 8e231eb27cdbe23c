// Package logging configures structured logging for janitor.
//
// The package builds a log/slog handler that:
//   - writes JSON, text or console output at a configurable level
//   - adds run_id, pass and trigger fields carried by the context
//   - redacts credentials and email addresses when RedactPII is set
//
// Components keep using the standard slog API:
//
//	logger := slog.Default().With("component", "cleanup.pipeline")
//	logger.InfoContext(ctx, "selected content", "dashboards", 3)
//
// and the process installs the handler once at startup:
//
//	if err := logging.Setup(logging.Config{Level: "info", Format: "json", RedactPII: true}); err != nil {
//	    return err
//	}
//
// # Redaction
//
// With RedactPII enabled, values logged under sensitive keys (client_secret,
// token, authorization, password) are masked and string values are scanned
// for bearer tokens, access_token query parameters and email addresses:
//
//   - Bearer abc.def          -> Bearer ***
//   - access_token=abc        -> access_token=***
//   - bi-admins@example.com   -> b***@example.com
package logging
