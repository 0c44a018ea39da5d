package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"banshee/internal/logging"
	"banshee/internal/notifications"
	"banshee/internal/transaction"
)

// Manager coordinates per-category transaction queues.
type Manager struct {
	logger   *slog.Logger
	notifier notifications.Service

	// recMu is held for reading across every history write so that
	// DetachRecorder can wait them out.
	recMu     sync.RWMutex
	recorder  Recorder
	recCtx    context.Context
	recCancel context.CancelFunc

	mu        sync.Mutex
	queues    map[transaction.Category][]transaction.Transaction
	executing []transaction.Transaction
	sweeping  map[transaction.Category]int
	cancelAll int
	// inflight counts started transactions whose completion handling
	// (history, notifications) has not returned yet; idle closes at zero.
	inflight int
	idle     chan struct{}

	batchActive    bool
	batchStart     time.Time
	batchCompleted int
	batchFailed    int

	watchMu   sync.Mutex
	watchers  map[int]chan Event
	nextWatch int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier sends completion and drain notifications through notifier.
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) { m.notifier = notifier }
}

// WithRecorder persists every finished transaction through recorder.
func WithRecorder(recorder Recorder) ManagerOption {
	return func(m *Manager) { m.recorder = recorder }
}

// NewManager constructs an idle manager.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		logger:   logging.NewComponentLogger(logger, "workflow-manager"),
		queues:   make(map[transaction.Category][]transaction.Transaction),
		sweeping: make(map[transaction.Category]int),
		watchers: make(map[int]chan Event),
	}
	m.recCtx, m.recCancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// DetachRecorder stops history writes. Writes already in progress are
// cancelled and waited for, and transactions finishing afterwards are not
// recorded. It is safe to close the recorder's backing store once it returns.
func (m *Manager) DetachRecorder() {
	m.recCancel()
	m.recMu.Lock()
	m.recorder = nil
	m.recMu.Unlock()
}
