// Package drapto produces AV1 encodes through Drapto.
//
// A Client runs one Drapto encode and streams typed ProgressUpdate values.
// Library calls the Drapto Go module in-process; CLI shells out to a drapto
// binary when one is configured. Engine wraps either client in the
// handle-based codec.Engine surface so the codec router can dispatch the av1
// format to it.
package drapto
