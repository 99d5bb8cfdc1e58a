package ui

import "github.com/abelbrown/emsal/internal/store"

// RecentQueriesLoaded carries the query history used for recall in the
// search box.
type RecentQueriesLoaded struct {
	Queries []string
	Err     error
}

// HistoryLoaded carries the contents of the history overlay.
type HistoryLoaded struct {
	Searches []store.SearchRecord
	Analyses []store.AnalysisRecord
	Err      error
}
