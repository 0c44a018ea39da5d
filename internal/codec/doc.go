// Package codec defines the encoder capability consumed by encode
// transactions and the adapter that drives an external codec engine.
//
// Engine is the fixed handle-based surface exposed by a native codec:
// create a handle, encode with a progress callback, read the last error,
// request cancellation and destroy the handle. NativeEncoder owns exactly one
// handle, turns engine callbacks into a clamped, monotonic progress stream and
// releases the handle exactly once on Close. Router lets a single handle serve
// every Format by dispatching to per-format engines.
package codec
