package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"banshee/internal/logging"
	"banshee/internal/transaction"
)

const watchBuffer = 64

const reportTimeout = 30 * time.Second

// Watch subscribes to executing-set changes. Delivery never blocks the
// manager: events are dropped for subscribers whose buffer is full. Call the
// returned function to unsubscribe and close the channel.
func (m *Manager) Watch() (<-chan Event, func()) {
	ch := make(chan Event, watchBuffer)
	m.watchMu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = ch
	m.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, id)
			close(ch)
			m.watchMu.Unlock()
		})
	}
}

// unlockAndPublish releases m.mu and delivers events. watchMu is taken
// before m.mu is released, so watchers see batches in the same order as the
// state changes that produced them.
func (m *Manager) unlockAndPublish(events []Event) {
	if len(events) == 0 {
		m.mu.Unlock()
		return
	}
	m.watchMu.Lock()
	m.mu.Unlock()
	defer m.watchMu.Unlock()
	for _, event := range events {
		for _, ch := range m.watchers {
			select {
			case ch <- event:
			default:
				m.logger.Debug("watcher buffer full; event dropped", logging.String("kind", string(event.Kind)))
			}
		}
	}
}

func (m *Manager) report(snapshot transaction.Snapshot, outcome transaction.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	ctx = logging.WithTransaction(ctx, snapshot.ID, string(snapshot.Category))
	logger := logging.WithContext(ctx, m.logger)

	m.record(ctx, logger, snapshot, outcome)

	if m.notifier == nil {
		return
	}
	var err error
	switch outcome.State {
	case transaction.StateCompleted:
		err = m.notifier.NotifyTransactionCompleted(ctx, snapshot.Name, string(snapshot.Category), outcome.Duration())
	case transaction.StateFailed:
		err = m.notifier.NotifyTransactionFailed(ctx, snapshot.Name, string(snapshot.Category), outcome.Err)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not send transaction notification")
		} else {
			logger.Debug("transaction notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) record(ctx context.Context, logger *slog.Logger, snapshot transaction.Snapshot, outcome transaction.Outcome) {
	m.recMu.RLock()
	defer m.recMu.RUnlock()
	if m.recorder == nil {
		logger.Debug("history recorder detached; outcome not recorded")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.recCtx, cancel)
	defer stop()

	if err := m.recorder.RecordOutcome(ctx, snapshot, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record transaction history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check library database access"),
			logging.String(logging.FieldImpact, "transaction will be missing from history"),
		)
	}
}

func (m *Manager) notifyDrained(summary drainSummary) {
	m.logger.Info("all background work finished",
		logging.Int("completed", summary.completed),
		logging.Int("failed", summary.failed),
		logging.Duration("duration", summary.duration),
		logging.EventType("queue_drained"),
	)
	if m.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := m.notifier.NotifyQueueDrained(ctx, summary.completed, summary.failed, summary.duration); err != nil {
		m.logger.Debug("queue drained notification failed", logging.Error(err))
	}
}
