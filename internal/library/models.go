package library

import (
	"time"

	"banshee/internal/transaction"
)

// Track is one file in the media library.
type Track struct {
	ID              int64
	Path            string
	Title           string
	Artist          string
	Album           string
	Format          string
	DurationSeconds float64
	SizeBytes       int64
	ImportedAt      time.Time
	UpdatedAt       time.Time
}

// Duration converts DurationSeconds.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationSeconds * float64(time.Second))
}

// Record is one finished transaction in the history table.
type Record struct {
	Seq           int64
	TransactionID string
	Category      transaction.Category
	Name          string
	State         transaction.State
	Status        string
	ErrorKind     string
	ErrorMessage  string
	Current       int64
	Total         int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns the recorded run time.
func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
