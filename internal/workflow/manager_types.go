package workflow

import (
	"context"

	"banshee/internal/transaction"
)

// EventKind identifies a change to the executing set.
type EventKind string

const (
	// EventStarted fires when a transaction begins executing.
	EventStarted EventKind = "started"
	// EventFinished fires when a transaction leaves the executing set.
	EventFinished EventKind = "finished"
	// EventIdle fires when the executing set becomes empty.
	EventIdle EventKind = "idle"
)

// Event is delivered to Watch subscribers. Snapshot is zero for EventIdle and
// Outcome is only set for EventFinished.
type Event struct {
	Kind      EventKind
	Snapshot  transaction.Snapshot
	Outcome   transaction.Outcome
	Executing int
}

// Recorder persists finished transactions, typically into the library history.
type Recorder interface {
	RecordOutcome(ctx context.Context, snapshot transaction.Snapshot, outcome transaction.Outcome) error
}

// CategoryStatus summarizes one category queue.
type CategoryStatus struct {
	Category transaction.Category
	Queued   int
	Running  string
}

// StatusSummary represents a consistent view of the scheduler for display.
type StatusSummary struct {
	Categories []CategoryStatus
	Executing  []transaction.Snapshot
	Top        *transaction.Snapshot
	Visible    int
	Cancelling bool
}
