// Package cleanup implements the Looker content lifecycle automation.
//
// A run consists of two passes executed in order:
//
//  1. Soft pass: find dashboards and Looks that nobody accessed for more than
//     SoftDeleteAfterDays, move them to the trash, and email the list.
//  2. Hard pass: find content that has been in the trash for more than
//     HardDeleteAfterDays, delete it permanently, and email the list.
//
// Each pass is a straight line: build a System Activity query, run it,
// project the rows into dashboard and Look ids, mutate every id (dashboards
// first, then Looks), and schedule a one-off CSV email of the query results.
//
// # Safety gates
//
// DryRun (default true) makes soft deletes send deleted=false, which is a
// no-op on live content, and suppresses permanent deletes. Permanent deletes
// additionally require AllowIrreversibleDelete. With the defaults a run never
// changes anything in Looker but still reports what it would have touched.
//
// # Fault isolation
//
// Query build and run failures abort only the affected pass and are reported
// as *PassError. Mutation and notification failures become failed Outcomes
// and never stop the batch. Nothing is retried.
//
// # Usage
//
//	p := cleanup.NewPipeline(client, cleanup.Config{
//	    SoftDeleteAfterDays: 90,
//	    HardDeleteAfterDays: 90,
//	    DryRun:              true,
//	    NotificationAddress: "bi-admins@example.com",
//	    NotifyEnabled:       true,
//	})
//	report, err := p.Run(ctx)
//	fmt.Println(report.Status())
package cleanup
