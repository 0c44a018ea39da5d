// Command banshee queues encode and import transactions against a local media
// library and reports their progress.
//
// Work runs in-process: each invocation opens the library, registers its
// transactions with the workflow manager, renders progress until the manager
// goes idle, and shuts down. Ctrl-C cancels every queued and running
// transaction and waits for them to wind down.
package main
