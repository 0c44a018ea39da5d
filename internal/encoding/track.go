package encoding

import (
	"path/filepath"
	"strings"
)

// Track is one source file queued for encoding.
type Track struct {
	Path  string
	Title string
}

// DisplayName returns the title, falling back to the file name.
func (t Track) DisplayName() string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	return filepath.Base(t.Path)
}

// Result records a successfully encoded track.
type Result struct {
	Track      Track
	OutputPath string
}

// Failure records a track the encoder rejected.
type Failure struct {
	Track Track
	Err   error
}
