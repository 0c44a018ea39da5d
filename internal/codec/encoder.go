package codec

import "context"

// Encoder converts one source file at a time into a target Format.
type Encoder interface {
	// Encode writes the encoded file and returns its path. progress, when
	// non-nil, receives non-decreasing fractions in [0, 1].
	Encode(ctx context.Context, sourcePath string, format Format, progress func(float64)) (string, error)
	// Cancel aborts the in-flight Encode, if any.
	Cancel()
}

// Handle identifies engine-side encoder state.
type Handle uint64

// Engine is the handle-based codec surface. Implementations must accept
// RequestCancel from any goroutine while Encode is running on the same handle;
// a request made while no encode is in flight applies to the next Encode.
// Progress callbacks may arrive on any goroutine.
type Engine interface {
	CreateHandle() (Handle, error)
	Encode(h Handle, sourcePath, outputPath string, format Format, progress func(float64)) bool
	LastError(h Handle) string
	RequestCancel(h Handle)
	DestroyHandle(h Handle)
}
