// Package preflight provides readiness checks for the directories, binaries
// and services banshee depends on.
//
// The doctor command prints every check. The encode and import commands run
// RunAll before registering work and refuse to start when a required check
// fails.
package preflight
