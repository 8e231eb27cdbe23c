package cleanup

// DashboardIDs returns the ids of dashboard rows, skipping rows without an id.
// Query order and duplicates are preserved.
func DashboardIDs(rows []ContentRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ContentType == ContentDashboard && row.DashboardID != nil {
			ids = append(ids, *row.DashboardID)
		}
	}
	return ids
}

// LookIDs returns the ids of Look rows, skipping rows without an id.
// Query order and duplicates are preserved.
func LookIDs(rows []ContentRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ContentType == ContentLook && row.LookID != nil {
			ids = append(ids, *row.LookID)
		}
	}
	return ids
}
