// Package logs reads the banshee log file for `banshee logs`.
//
// Last returns the trailing lines of a file along with the byte offset after
// them; Follow polls from an offset and emits complete lines as they are
// appended until the context ends. A missing file is treated as empty so the
// command works before the first run has written anything.
package logs
