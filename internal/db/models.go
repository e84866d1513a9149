// Package db keeps a local SQLite history of completed analyses.
package db

import "time"

// Entry is one completed analysis.
type Entry struct {
	ID        string
	SessionID string
	Analyzer  string
	FileName  string
	Summary   string
	CreatedAt time.Time
}
