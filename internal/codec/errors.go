package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat reports a format outside the closed enumeration
	// or one the selected engine cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrClosed reports use of an encoder after Close.
	ErrClosed = errors.New("encoder closed")
)

// EncodingError carries the engine diagnostic for a failed encode.
type EncodingError struct {
	Source     string
	Format     Format
	Diagnostic string
	Err        error
}

func (e *EncodingError) Error() string {
	diagnostic := strings.TrimSpace(e.Diagnostic)
	if diagnostic == "" {
		diagnostic = "codec engine reported failure"
	}
	return fmt.Sprintf("encode %s to %s: %s", e.Source, e.Format, diagnostic)
}

func (e *EncodingError) Unwrap() error { return e.Err }
