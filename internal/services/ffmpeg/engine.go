package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"banshee/internal/codec"
	"banshee/internal/logging"
	"banshee/internal/media/ffprobe"
)

var commandContext = exec.CommandContext

// Prober reports the duration of a media file.
type Prober func(ctx context.Context, path string) (time.Duration, error)

// Option configures the Engine.
type Option func(*Engine)

// WithBinary overrides the ffmpeg binary.
func WithBinary(binary string) Option {
	return func(e *Engine) {
		if binary = strings.TrimSpace(binary); binary != "" {
			e.binary = binary
		}
	}
}

// WithProbeBinary overrides the ffprobe binary used for durations.
func WithProbeBinary(binary string) Option {
	return func(e *Engine) {
		if binary = strings.TrimSpace(binary); binary != "" {
			e.probeBinary = binary
		}
	}
}

// WithBitrate sets the lossy target bitrate in kbps.
func WithBitrate(kbps int) Option {
	return func(e *Engine) {
		if kbps > 0 {
			e.bitrateKbps = kbps
		}
	}
}

// WithProber replaces the duration probe.
func WithProber(probe Prober) Option {
	return func(e *Engine) { e.probe = probe }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs ffmpeg for each encode.
type Engine struct {
	binary      string
	probeBinary string
	bitrateKbps int
	probe       Prober
	logger      *slog.Logger
	handles     *codec.HandleTable
}

// New constructs an ffmpeg engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		binary:      "ffmpeg",
		probeBinary: "ffprobe",
		bitrateKbps: 192,
		logger:      logging.NewNop(),
		handles:     codec.NewHandleTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.probe == nil {
		e.probe = func(ctx context.Context, path string) (time.Duration, error) {
			result, err := ffprobe.Inspect(ctx, e.probeBinary, path)
			if err != nil {
				return 0, err
			}
			return result.Duration(), nil
		}
	}
	e.logger = logging.NewComponentLogger(e.logger, "ffmpeg")
	return e
}

func (e *Engine) CreateHandle() (codec.Handle, error) {
	return e.handles.Create(), nil
}

func (e *Engine) Encode(h codec.Handle, sourcePath, outputPath string, format codec.Format, progress func(float64)) bool {
	if !format.Audio() {
		e.handles.Fail(h, fmt.Sprintf("ffmpeg engine cannot produce %s", format))
		return false
	}
	ctx, ok := e.handles.Begin(h)
	if !ok {
		return false
	}
	if err := e.run(ctx, sourcePath, outputPath, format, progress); err != nil {
		_ = os.Remove(outputPath)
		e.handles.End(h, err.Error())
		return false
	}
	e.handles.End(h, "")
	return true
}

func (e *Engine) LastError(h codec.Handle) string { return e.handles.LastError(h) }
func (e *Engine) RequestCancel(h codec.Handle)    { e.handles.Cancel(h) }
func (e *Engine) DestroyHandle(h codec.Handle)    { e.handles.Destroy(h) }

func (e *Engine) run(ctx context.Context, sourcePath, outputPath string, format codec.Format, progress func(float64)) error {
	duration, err := e.probe(ctx, sourcePath)
	if err != nil {
		e.logger.Debug("duration probe failed; progress will be coarse",
			logging.String("source", sourcePath),
			logging.Error(err),
		)
		duration = 0
	}

	cmd := commandContext(ctx, e.binary, Args(sourcePath, outputPath, format, e.bitrateKbps)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	readProgress(stdout, duration, progress)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.New("cancelled")
		}
		if detail := lastLine(stderr.String()); detail != "" {
			return errors.New(detail)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// Args builds the ffmpeg argument list for an encode.
func Args(sourcePath, outputPath string, format codec.Format, bitrateKbps int) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", sourcePath, "-vn", "-map_metadata", "0"}
	bitrate := strconv.Itoa(bitrateKbps) + "k"
	switch format {
	case codec.FormatMP3:
		args = append(args, "-c:a", "libmp3lame", "-b:a", bitrate)
	case codec.FormatOgg:
		args = append(args, "-c:a", "libvorbis", "-b:a", bitrate)
	case codec.FormatFLAC:
		args = append(args, "-c:a", "flac")
	case codec.FormatAAC:
		args = append(args, "-c:a", "aac", "-b:a", bitrate)
	case codec.FormatOpus:
		args = append(args, "-c:a", "libopus", "-b:a", bitrate)
	}
	return append(args, "-progress", "pipe:1", "-nostats", outputPath)
}

func readProgress(r io.Reader, duration time.Duration, progress func(float64)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || progress == nil {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			if duration <= 0 {
				continue
			}
			micros, err := strconv.ParseInt(value, 10, 64)
			if err != nil || micros < 0 {
				continue
			}
			progress(float64(time.Duration(micros)*time.Microsecond) / float64(duration))
		case "progress":
			if value == "end" {
				progress(1)
			}
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

var _ codec.Engine = (*Engine)(nil)
