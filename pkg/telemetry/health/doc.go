// Package health implements the liveness and readiness probes of the
// janitor service.
//
// Liveness only reports that the process is up. Readiness runs the
// registered checks concurrently, each with its own timeout:
//
//   - looker: the API credentials still work (GET /user)
//   - audit: the audit store answers
//   - last_run: the most recent scheduled run did not fail outright and is
//     not older than expected
//
// Any failing check turns readiness into "degraded" with HTTP 503.
package health
