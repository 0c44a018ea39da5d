// Package transaction defines the contract for cancellable, progress-reporting
// units of background work and a reusable Base implementation.
//
// A transaction belongs to exactly one Category, runs at most once on its own
// goroutine via ThreadedRun, and signals completion by closing Done exactly
// once. Cancellation is cooperative: Cancel cancels the run context and invokes
// the runner's Interrupt hook so blocking work can abort promptly, while the
// runner is expected to check Cancelled between discrete units of work.
//
// Concrete transactions embed *Base and pass themselves as the Runner.
package transaction
