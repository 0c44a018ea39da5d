// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe against a file and returns a Result. Helper methods
// on Result expose stream counts, durations, sizes and the common metadata
// tags (title, artist, album) the library importer records.
package ffprobe
