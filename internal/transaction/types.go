package transaction

import (
	"context"
	"strings"
	"time"
)

// Category is the scheduling key grouping transactions that must serialize
// against each other. It is assigned by the transaction author.
type Category string

const (
	CategoryEncode Category = "encode"
	CategoryImport Category = "import"
	CategorySync   Category = "sync"
	CategoryRip    Category = "rip"
)

func (c Category) String() string { return string(c) }

// State enumerates the lifecycle of a transaction.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// ParseState converts a stored state string into a State.
func ParseState(value string) (State, bool) {
	state := State(strings.ToLower(strings.TrimSpace(value)))
	switch state {
	case StatePending, StateRunning, StateCompleted, StateCancelled, StateFailed:
		return state, true
	default:
		return "", false
	}
}

// Outcome describes how a transaction finished. It is only meaningful once
// Done has been closed.
type Outcome struct {
	State    State
	Err      error
	Started  time.Time
	Finished time.Time
}

// Duration returns the wall-clock run time, zero when the transaction never started.
func (o Outcome) Duration() time.Duration {
	if o.Started.IsZero() || o.Finished.IsZero() {
		return 0
	}
	return o.Finished.Sub(o.Started)
}

// Snapshot is a consistent copy of a transaction's display attributes.
type Snapshot struct {
	ID         string
	Category   Category
	Name       string
	Status     string
	ShowStatus bool
	State      State
	Current    int64
	Total      int64
	Percent    float64
}

// Transaction is the contract consumed by the workflow manager.
type Transaction interface {
	ID() string
	Category() Category
	Name() string
	ShowStatus() bool
	// ThreadedRun attempts to start the work on a new goroutine. It returns
	// false without spawning when the transaction was cancelled or already ran.
	ThreadedRun() bool
	Cancel()
	Cancelled() bool
	Done() <-chan struct{}
	Outcome() Outcome
	Snapshot() Snapshot
}

// Runner is the body of a transaction.
type Runner interface {
	Run(ctx context.Context) error
}

// Interrupter is implemented by runners whose blocking work needs an explicit
// nudge to abort when the transaction is cancelled.
type Interrupter interface {
	Interrupt()
}

// RunnerFunc adapts a plain function into a Runner.
type RunnerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }
