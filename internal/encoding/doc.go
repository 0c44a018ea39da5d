// Package encoding implements the encode transaction: a batch of tracks
// driven through a codec.Encoder in insertion order.
//
// A failing track is logged and skipped so one bad file never aborts the
// batch. Cancellation is checked before every track and interrupts the
// in-flight encode through the encoder's Cancel hook. Progress is reported in
// fixed-point units of Precision per track so sub-track fractions blend into
// batch progress without drift.
package encoding
