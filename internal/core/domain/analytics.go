package domain

import "time"

// DefaultDedupHorizon is how long a (fingerprint, path) pair suppresses repeat
// view counting.
const DefaultDedupHorizon = 2 * time.Hour

// PageView is one entry of the append-only page-view log. Rows are never
// updated after insert.
type PageView struct {
	ID           string
	Fingerprint  Fingerprint
	Path         string
	WindowWidth  int
	WindowHeight int
	Referrer     *string
	CreatedAt    time.Time
}

// PageStats aggregates the view log for a single path.
type PageStats struct {
	TotalViews     int64
	UniqueVisitors int64
	Last24h        int64
	Last7d         int64
}
