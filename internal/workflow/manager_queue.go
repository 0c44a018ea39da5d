package workflow

import (
	"banshee/internal/logging"
	"banshee/internal/transaction"
)

// Register enqueues tx under its category and starts it right away when the
// category is idle. It returns false, leaving tx untouched, while a
// cancellation sweep covers the category.
func (m *Manager) Register(tx transaction.Transaction) bool {
	if tx == nil {
		return false
	}
	category := tx.Category()

	m.mu.Lock()
	if m.cancelAll > 0 || m.sweeping[category] > 0 {
		m.mu.Unlock()
		m.logger.Debug("registration rejected during cancellation",
			logging.String(logging.FieldCategory, string(category)),
			logging.String(logging.FieldTransactionID, tx.ID()),
			logging.EventType("registration_rejected"),
		)
		return false
	}
	wasEmpty := len(m.queues[category]) == 0
	m.queues[category] = append(m.queues[category], tx)
	position := len(m.queues[category])
	var events []Event
	if wasEmpty {
		events = m.startLocked(category)
	}
	m.unlockAndPublish(events)

	m.logger.Debug("transaction registered",
		logging.String(logging.FieldCategory, string(category)),
		logging.String(logging.FieldTransactionID, tx.ID()),
		logging.String("name", tx.Name()),
		logging.Int("position", position),
	)
	return true
}

// Cancel cancels every transaction queued under category, including the one
// running, and clears the queue. It does not wait for the running transaction
// to stop.
func (m *Manager) Cancel(category transaction.Category) {
	m.mu.Lock()
	m.sweeping[category]++
	members := append([]transaction.Transaction(nil), m.queues[category]...)
	m.mu.Unlock()

	for _, tx := range members {
		tx.Cancel()
	}

	m.mu.Lock()
	delete(m.queues, category)
	m.sweeping[category]--
	if m.sweeping[category] <= 0 {
		delete(m.sweeping, category)
	}
	m.mu.Unlock()

	if len(members) > 0 {
		m.logger.Info("category cancelled",
			logging.String(logging.FieldCategory, string(category)),
			logging.Int("cancelled", len(members)),
			logging.EventType("category_cancelled"),
		)
	}
}

// CancelAll sweeps every category. Registration is refused until it returns.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	m.cancelAll++
	var members []transaction.Transaction
	for _, queue := range m.queues {
		members = append(members, queue...)
	}
	m.mu.Unlock()

	for _, tx := range members {
		tx.Cancel()
	}

	m.mu.Lock()
	clear(m.queues)
	m.cancelAll--
	m.mu.Unlock()

	m.logger.Info("all transactions cancelled",
		logging.Int("cancelled", len(members)),
		logging.EventType("cancel_all"),
	)
}
