// Package ffmpeg implements a codec.Engine for the audio formats by running
// the ffmpeg binary.
//
// Each encode runs `ffmpeg -progress pipe:1` and converts the reported
// out_time into a completion fraction using the source duration from
// ffprobe. Cancelling a handle kills the running process and removes the
// partial output.
package ffmpeg
