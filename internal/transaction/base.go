package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"banshee/internal/logging"
	"banshee/internal/services"
)

// Option configures a Base.
type Option func(*Base)

// WithShowStatus controls whether the transaction counts toward visible
// aggregate progress. Defaults to true.
func WithShowStatus(show bool) Option {
	return func(b *Base) { b.showStatus = show }
}

// WithLogger sets the logger used for lifecycle and failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(b *Base) {
		if id = strings.TrimSpace(id); id != "" {
			b.id = id
		}
	}
}

// Base implements Transaction around a Runner.
type Base struct {
	id         string
	category   Category
	name       string
	showStatus bool
	runner     Runner
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           State
	status          string
	current         int64
	total           int64
	totalFixed      bool
	cancelRequested bool
	outcome         Outcome

	cancelOnce sync.Once
	doneOnce   sync.Once
	done       chan struct{}
}

// NewBase constructs a pending transaction that executes runner when started.
func NewBase(category Category, name string, runner Runner, opts ...Option) *Base {
	b := &Base{
		id:         uuid.NewString(),
		category:   category,
		name:       strings.TrimSpace(name),
		showStatus: true,
		runner:     runner,
		logger:     logging.NewNop(),
		state:      StatePending,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.name == "" {
		b.name = string(category)
	}
	b.logger = b.logger.With(
		logging.String(logging.FieldComponent, "transaction"),
		logging.String(logging.FieldTransactionID, b.id),
		logging.String(logging.FieldCategory, string(b.category)),
	)
	b.ctx, b.cancel = context.WithCancel(logging.WithTransaction(context.Background(), b.id, string(b.category)))
	return b
}

func (b *Base) ID() string         { return b.id }
func (b *Base) Category() Category { return b.category }
func (b *Base) Name() string       { return b.name }
func (b *Base) ShowStatus() bool   { return b.showStatus }

// Logger returns the transaction-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Done is closed exactly once when the transaction reaches a terminal state.
func (b *Base) Done() <-chan struct{} { return b.done }

// Cancelled reports whether cancellation was requested.
func (b *Base) Cancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelRequested
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Outcome returns the final outcome. Before Done is closed only State is set.
func (b *Base) Outcome() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.outcome
	if !b.state.Terminal() {
		out.State = b.state
	}
	return out
}

// Progress returns the current and total counters.
func (b *Base) Progress() (current, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.total
}

// Snapshot returns a consistent copy of display attributes.
func (b *Base) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Snapshot{
		ID:         b.id,
		Category:   b.category,
		Name:       b.name,
		Status:     b.status,
		ShowStatus: b.showStatus,
		State:      b.state,
		Current:    b.current,
		Total:      b.total,
	}
	if b.total > 0 {
		snap.Percent = float64(b.current) / float64(b.total) * 100
	}
	return snap
}

// SetTotal fixes the total work counter. Only the first call made while
// running is honoured.
func (b *Base) SetTotal(total int64) {
	if total < 0 {
		total = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRunning || b.totalFixed {
		return
	}
	b.total = total
	b.totalFixed = true
	if b.current > b.total {
		b.current = b.total
	}
}

// SetCurrent advances the progress counter. Decreases are ignored and the
// value is clamped to the fixed total.
func (b *Base) SetCurrent(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRunning {
		return
	}
	if b.totalFixed && current > b.total {
		current = b.total
	}
	if current <= b.current {
		return
	}
	b.current = current
}

// SetStatus replaces the human-readable status message.
func (b *Base) SetStatus(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Terminal() {
		return
	}
	b.status = strings.TrimSpace(message)
}

// ThreadedRun starts the runner on its own goroutine.
func (b *Base) ThreadedRun() bool {
	b.mu.Lock()
	if b.cancelRequested || b.state != StatePending {
		b.mu.Unlock()
		return false
	}
	if b.runner == nil {
		b.mu.Unlock()
		b.finish(StateFailed, errors.New("transaction has no runner"))
		return false
	}
	b.state = StateRunning
	b.outcome.Started = time.Now()
	b.mu.Unlock()

	b.logger.Debug("transaction started", logging.String("name", b.name))
	go b.execute()
	return true
}

// Cancel requests cancellation. Repeat calls are no-ops. A transaction that
// never started becomes cancelled immediately.
func (b *Base) Cancel() {
	b.cancelOnce.Do(func() {
		b.mu.Lock()
		b.cancelRequested = true
		pending := b.state == StatePending
		b.mu.Unlock()

		b.cancel()
		if pending {
			b.finish(StateCancelled, context.Canceled)
			return
		}
		if hook, ok := b.runner.(Interrupter); ok {
			hook.Interrupt()
		}
	})
}

func (b *Base) execute() {
	var runErr error
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("transaction panicked",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.EventType("transaction_panic"),
				logging.String(logging.FieldErrorHint, "this is a bug in the transaction body"),
			)
			b.finish(StateFailed, fmt.Errorf("transaction panic: %v", r))
			return
		}
		b.finish(b.classify(runErr), runErr)
	}()
	runErr = b.runner.Run(b.ctx)
}

func (b *Base) classify(err error) State {
	cancelled := b.Cancelled()
	switch {
	case err == nil && cancelled:
		return StateCancelled
	case err == nil:
		return StateCompleted
	case cancelled || services.IsCancellation(err):
		return StateCancelled
	default:
		return StateFailed
	}
}

func (b *Base) finish(state State, err error) {
	b.mu.Lock()
	if b.state.Terminal() {
		b.mu.Unlock()
		return
	}
	b.state = state
	b.outcome.State = state
	b.outcome.Err = err
	b.outcome.Finished = time.Now()
	duration := b.outcome.Duration()
	b.mu.Unlock()

	b.cancel()
	switch state {
	case StateFailed:
		logging.ErrorWithContext(b.logger, "transaction failed", "transaction_failed",
			logging.String("name", b.name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the transaction logs for the failing step"),
		)
	case StateCancelled:
		b.logger.Info("transaction cancelled", logging.String("name", b.name), logging.Duration("duration", duration))
	default:
		b.logger.Info("transaction completed", logging.String("name", b.name), logging.Duration("duration", duration))
	}
	b.doneOnce.Do(func() { close(b.done) })
}
