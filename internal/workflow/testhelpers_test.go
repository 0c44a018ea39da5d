package workflow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"banshee/internal/logging"
	"banshee/internal/testsupport"
	"banshee/internal/transaction"
	"banshee/internal/workflow"
)

func newManager(opts ...workflow.ManagerOption) *workflow.Manager {
	return workflow.NewManager(logging.NewNop(), opts...)
}

// hookTx wraps a Controlled transaction so tests can observe and intercept Cancel.
type hookTx struct {
	*testsupport.Controlled
	cancels  atomic.Int32
	onCancel func()
}

func newHookTx(category transaction.Category, name string, opts ...transaction.Option) *hookTx {
	return &hookTx{Controlled: testsupport.NewControlled(category, name, opts...)}
}

func (h *hookTx) Cancel() {
	h.cancels.Add(1)
	if h.onCancel != nil {
		h.onCancel()
	}
	h.Controlled.Cancel()
}

func ids(txs []transaction.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Name())
	}
	return out
}

func assertExecuting(t *testing.T, mgr *workflow.Manager, want ...string) {
	t.Helper()
	got := ids(mgr.Executing())
	if len(got) != len(want) {
		t.Fatalf("executing = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("executing = %v, want %v", got, want)
		}
	}
}

func assertNotStarted(t *testing.T, c *testsupport.Controlled) {
	t.Helper()
	select {
	case <-c.Started():
		t.Fatalf("transaction %q started unexpectedly", c.Name())
	default:
	}
}

func waitExecuting(t *testing.T, mgr *workflow.Manager, want ...string) {
	t.Helper()
	testsupport.Eventually(t, "executing set", func() bool {
		got := ids(mgr.Executing())
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})
}

type recordedOutcome struct {
	snapshot transaction.Snapshot
	outcome  transaction.Outcome
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedOutcome
}

func (r *fakeRecorder) RecordOutcome(_ context.Context, snap transaction.Snapshot, out transaction.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedOutcome{snapshot: snap, outcome: out})
	return nil
}

func (r *fakeRecorder) all() []recordedOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedOutcome(nil), r.records...)
}

type drainCall struct {
	completed int
	failed    int
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	drained   []drainCall
}

func (n *fakeNotifier) NotifyTransactionCompleted(_ context.Context, name, _ string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, name)
	return nil
}

func (n *fakeNotifier) NotifyTransactionFailed(_ context.Context, name, _ string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, name)
	return nil
}

func (n *fakeNotifier) NotifyQueueDrained(_ context.Context, completed, failed int, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drained = append(n.drained, drainCall{completed: completed, failed: failed})
	return nil
}

func (n *fakeNotifier) TestNotification(context.Context) error { return nil }

func (n *fakeNotifier) drainCalls() []drainCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]drainCall(nil), n.drained...)
}
