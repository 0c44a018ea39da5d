package preflight

import (
	"context"
	"fmt"

	"banshee/internal/config"
	"banshee/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Blocking reports whether a failed result should stop work from starting.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Optional
}

// RunAll executes the directory and binary checks for cfg. The ntfy check is
// only run when a topic is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// FirstBlocking returns the first failed required check, if any.
func FirstBlocking(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Blocking() {
			return r, true
		}
	}
	return Result{}, false
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	if status.Available {
		result.Detail = status.Command
	} else {
		result.Detail = status.Detail
	}
	if status.Description != "" && !status.Available {
		result.Detail = fmt.Sprintf("%s (%s)", result.Detail, status.Description)
	}
	return result
}
