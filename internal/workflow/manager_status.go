package workflow

import (
	"slices"
	"strings"

	"banshee/internal/transaction"
)

// TopVisible returns the most recently started executing transaction whose
// ShowStatus is set.
func (m *Manager) TopVisible() (transaction.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.executing {
		if tx.ShowStatus() {
			return tx, true
		}
	}
	return nil, false
}

// VisibleCount counts queued and running transactions whose ShowStatus is set.
func (m *Manager) VisibleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneFinishedLocked()
	total := 0
	for _, queue := range m.queues {
		for _, tx := range queue {
			if tx.ShowStatus() {
				total++
			}
		}
	}
	return total
}

// Executing returns the executing transactions, most recently started first.
func (m *Manager) Executing() []transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.executing)
}

// Queued returns the queue for category in execution order. The running
// transaction, if any, is the first element.
func (m *Manager) Queued(category transaction.Category) []transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneFinishedLocked()
	return slices.Clone(m.queues[category])
}

// Status returns a display summary of every category.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneFinishedLocked()

	summary := StatusSummary{Cancelling: m.cancelAll > 0 || len(m.sweeping) > 0}
	running := make(map[transaction.Category]string, len(m.executing))
	for _, tx := range m.executing {
		snap := tx.Snapshot()
		summary.Executing = append(summary.Executing, snap)
		if _, ok := running[snap.Category]; !ok {
			running[snap.Category] = snap.Name
		}
		if summary.Top == nil && snap.ShowStatus {
			top := snap
			summary.Top = &top
		}
	}

	seen := make(map[transaction.Category]struct{}, len(m.queues))
	for category, queue := range m.queues {
		seen[category] = struct{}{}
		summary.Categories = append(summary.Categories, CategoryStatus{
			Category: category,
			Queued:   len(queue),
			Running:  running[category],
		})
		for _, tx := range queue {
			if tx.ShowStatus() {
				summary.Visible++
			}
		}
	}
	for category, name := range running {
		if _, ok := seen[category]; !ok {
			summary.Categories = append(summary.Categories, CategoryStatus{Category: category, Running: name})
		}
	}
	slices.SortFunc(summary.Categories, func(a, b CategoryStatus) int {
		return strings.Compare(string(a.Category), string(b.Category))
	})
	return summary
}

// pruneFinishedLocked drops queued transactions that reached a terminal state
// without being started, such as ones cancelled directly by their owner.
// Executing transactions stay until awaitCompletion removes them.
func (m *Manager) pruneFinishedLocked() {
	for category, queue := range m.queues {
		queue = slices.DeleteFunc(queue, func(tx transaction.Transaction) bool {
			return tx.Outcome().State.Terminal() && !slices.Contains(m.executing, tx)
		})
		if len(queue) == 0 {
			delete(m.queues, category)
			continue
		}
		m.queues[category] = queue
	}
}
