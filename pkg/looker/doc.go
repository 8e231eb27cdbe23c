// Package looker provides a minimal client for the Looker REST API 4.0.
//
// Only the operations needed by the content cleanup pipeline are covered:
//
//   - POST   /queries                      create a query definition
//   - GET    /queries/{id}/run/{format}    run a saved query
//   - PATCH  /dashboards/{id}              update a dashboard (soft delete flag)
//   - PATCH  /looks/{id}                   update a Look (soft delete flag)
//   - DELETE /dashboards/{id}              permanently delete a dashboard
//   - DELETE /looks/{id}                   permanently delete a Look
//   - POST   /scheduled_plans/run_once     deliver a query result once
//   - GET    /user                         current user (connectivity check)
//
// # Authentication
//
// Looker's /login endpoint accepts client_id and client_secret as form
// parameters and answers with an access token, which matches the OAuth2
// client credentials flow. The client uses golang.org/x/oauth2 so tokens are
// cached and refreshed transparently:
//
//	client, err := looker.NewClient(looker.Config{
//	    BaseURL:      "https://example.looker.com:19999",
//	    ClientID:     os.Getenv("LOOKER_CLIENT_ID"),
//	    ClientSecret: os.Getenv("LOOKER_CLIENT_SECRET"),
//	})
//
// # Errors
//
// Failed calls return typed errors: *AuthError (401/403 and login failures),
// *NotFoundError (404), *APIError (any other non-2xx status), *ParseError
// (undecodable payload) and *TimeoutError. Requests are never retried.
//
// # Testing
//
// Code that talks to Looker should depend on the API interface so tests can
// substitute a fake.
package looker
