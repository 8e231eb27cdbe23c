// Package server exposes a cleanup run over HTTP for "janitor serve".
//
// Routes:
//
//	POST /run       trigger a run; responds with the run status line
//	GET  /healthz   liveness
//	GET  /readyz    readiness (503 when a check fails)
//	GET  /metrics   Prometheus metrics
//	GET  /version   build information
//
// POST /run ignores the request body. When server.run_token is set the
// request must carry "Authorization: Bearer <token>". A run requested while
// another is in flight gets 409 Conflict; a run in which every pass failed
// gets 500 with the status line as body.
package server
