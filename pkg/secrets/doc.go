// Package secrets resolves ${secret:name} references in configuration
// values, so credentials such as the Looker client secret or the run token
// can live in the environment or in mounted files instead of janitor.yaml.
//
// Providers are consulted in order:
//
//	m := secrets.NewManager(5*time.Minute,
//		secrets.NewEnvProvider("JANITOR_SECRET_"),
//		fileProvider,
//	)
//	secret, err := m.Resolve(ctx, cfg.Looker.ClientSecret)
package secrets
