/*
Package cli provides helpers shared by the janitor commands.

Output formatting supports text, JSON and CSV. Results with a tabular form
implement Table; ReportView and RecordsView adapt a cleanup report and audit
records:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, cli.ReportView{Report: report}); err != nil {
		return err
	}

SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM, so a
run in progress stops between remote calls instead of being killed.
*/
package cli
