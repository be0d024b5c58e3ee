package schema

import "time"

// RunRecord represents a row from the tagchurn_runs table.
type RunRecord struct {
	RunID           int64
	StartTime       time.Time
	EndTime         *time.Time
	RunDurationMs   *int32
	CommitsSeen     int32
	CommitsFiltered int32
	CommitsEmitted  int32
	TotalRows       int32
	ConfigParams    *string
}

// ChurnRowRecord represents a row from the tagchurn_churn_rows table.
type ChurnRowRecord struct {
	RunID   int64
	Seq     int32
	Commit  string
	Path    string
	Label   string
	Churn   int32
	Added   int32
	Removed int32
}
