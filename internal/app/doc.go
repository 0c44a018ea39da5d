// Package app wires the long-lived pieces of a banshee process together.
//
// Open takes the single-instance lock on the state directory, opens the
// library store, and builds the workflow manager with the store as its
// history recorder and the configured ntfy notifier. It also owns the codec
// engine router that encode transactions share. Shutdown reverses the order:
// cancel everything, wait for the manager to go idle, close the store, and
// release the lock.
package app
