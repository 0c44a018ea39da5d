// Package workflow schedules background transactions.
//
// The Manager keeps one FIFO queue per transaction category and runs at most
// one transaction of each category at a time, starting the queue head on its
// own goroutine as soon as the category is idle. Categories never block each
// other, so a slow encode queue does not hold up a library import.
//
// Cancellation works at three granularities: a single transaction
// (Transaction.Cancel), a whole category (Cancel), or everything (CancelAll).
// Sweeps are synchronous for the caller but never wait for workers to stop;
// shutdown code pairs CancelAll with WaitIdle before releasing shared
// resources.
//
// Observers subscribe with Watch and receive events in the order the executing
// set changed. Each finished transaction is also reported to the optional
// notifier and history recorder, always outside the manager lock.
package workflow
