package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"banshee/internal/transaction"
)

// Controlled is a transaction whose body blocks until the test releases it.
type Controlled struct {
	*transaction.Base

	started     chan struct{}
	startOnce   sync.Once
	release     chan struct{}
	releaseOnce sync.Once
	result      error
}

// NewControlled builds a pending Controlled transaction.
func NewControlled(category transaction.Category, name string, opts ...transaction.Option) *Controlled {
	c := &Controlled{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c.Base = transaction.NewBase(category, name, c, opts...)
	return c
}

// Run blocks until Finish is called or the transaction is cancelled.
func (c *Controlled) Run(ctx context.Context) error {
	c.startOnce.Do(func() { close(c.started) })
	select {
	case <-c.release:
		return c.result
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Started is closed once Run begins.
func (c *Controlled) Started() <-chan struct{} { return c.started }

// Finish lets Run return err.
func (c *Controlled) Finish(err error) {
	c.releaseOnce.Do(func() {
		c.result = err
		close(c.release)
	})
}

// WaitStarted fails the test if Run does not begin in time.
func WaitStarted(t testing.TB, c *Controlled) {
	t.Helper()
	select {
	case <-c.Started():
	case <-time.After(5 * time.Second):
		t.Fatalf("transaction %q did not start", c.Name())
	}
}

// WaitDone fails the test if tx does not reach a terminal state in time.
func WaitDone(t testing.TB, tx transaction.Transaction) transaction.Outcome {
	t.Helper()
	select {
	case <-tx.Done():
		return tx.Outcome()
	case <-time.After(5 * time.Second):
		t.Fatalf("transaction %q did not finish", tx.Name())
		return transaction.Outcome{}
	}
}

// Eventually polls cond until it holds or the deadline passes.
func Eventually(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
