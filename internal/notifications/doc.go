// Package notifications delivers transaction lifecycle events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The workflow manager calls it when a transaction finishes and when
// all background work has drained.
package notifications
