package workflow

import (
	"context"
	"slices"
	"time"

	"banshee/internal/logging"
	"banshee/internal/transaction"
)

// startLocked runs the start algorithm for category and returns the events to
// publish as the lock is released. A category whose previous transaction
// is still winding down after a sweep waits for it before starting the next.
func (m *Manager) startLocked(category transaction.Category) []Event {
	if m.cancelAll > 0 || m.sweeping[category] > 0 {
		return nil
	}
	if m.executingInLocked(category) {
		return nil
	}
	for {
		queue := m.queues[category]
		if len(queue) == 0 {
			delete(m.queues, category)
			return nil
		}
		head := queue[0]
		if head.ThreadedRun() {
			m.executing = append([]transaction.Transaction{head}, m.executing...)
			if !m.batchActive {
				m.batchActive = true
				m.batchStart = time.Now()
				m.batchCompleted, m.batchFailed = 0, 0
			}
			if m.idle == nil {
				m.idle = make(chan struct{})
			}
			m.inflight++
			go m.awaitCompletion(head)
			return []Event{{Kind: EventStarted, Snapshot: head.Snapshot(), Executing: len(m.executing)}}
		}
		m.logger.Debug("queued transaction declined to start",
			logging.String(logging.FieldCategory, string(category)),
			logging.String(logging.FieldTransactionID, head.ID()),
		)
		m.queues[category] = queue[1:]
	}
}

func (m *Manager) executingInLocked(category transaction.Category) bool {
	for _, tx := range m.executing {
		if tx.Category() == category {
			return true
		}
	}
	return false
}

type drainSummary struct {
	completed int
	failed    int
	duration  time.Duration
}

func (m *Manager) awaitCompletion(tx transaction.Transaction) {
	<-tx.Done()
	outcome := tx.Outcome()
	snapshot := tx.Snapshot()
	category := tx.Category()

	m.mu.Lock()
	if queue := m.queues[category]; len(queue) > 0 {
		m.queues[category] = slices.DeleteFunc(queue, func(item transaction.Transaction) bool { return item == tx })
	}
	m.executing = slices.DeleteFunc(m.executing, func(item transaction.Transaction) bool { return item == tx })
	switch outcome.State {
	case transaction.StateCompleted:
		m.batchCompleted++
	case transaction.StateFailed:
		m.batchFailed++
	}
	events := []Event{{Kind: EventFinished, Snapshot: snapshot, Outcome: outcome, Executing: len(m.executing)}}
	events = append(events, m.startLocked(category)...)
	var drained *drainSummary
	if len(m.executing) == 0 {
		if m.batchActive {
			drained = &drainSummary{
				completed: m.batchCompleted,
				failed:    m.batchFailed,
				duration:  time.Since(m.batchStart),
			}
			m.batchActive = false
		}
		events = append(events, Event{Kind: EventIdle})
	}
	m.unlockAndPublish(events)

	m.logger.Debug("transaction left executing set",
		logging.String(logging.FieldTransactionID, snapshot.ID),
		logging.String(logging.FieldCategory, string(category)),
		logging.String("state", string(outcome.State)),
	)
	m.report(snapshot, outcome)
	if drained != nil {
		m.notifyDrained(*drained)
	}

	m.mu.Lock()
	m.inflight--
	if m.inflight == 0 && m.idle != nil {
		close(m.idle)
		m.idle = nil
	}
	m.mu.Unlock()
}

// WaitIdle blocks until no transaction is executing and the history and
// notification calls for finished ones have returned, or ctx ends.
func (m *Manager) WaitIdle(ctx context.Context) error {
	for {
		m.mu.Lock()
		if len(m.executing) == 0 && m.inflight == 0 {
			m.mu.Unlock()
			return nil
		}
		idle := m.idle
		m.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
