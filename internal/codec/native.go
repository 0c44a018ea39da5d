package codec

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"banshee/internal/services"
)

// NativeEncoder adapts an Engine to the Encoder interface. It owns a single
// engine handle for its whole lifetime.
type NativeEncoder struct {
	engine     Engine
	scratchDir string
	logger     *slog.Logger
	handle     Handle

	mu        sync.Mutex
	closing   bool
	destroyed bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// NativeOption configures a NativeEncoder.
type NativeOption func(*NativeEncoder)

// WithLogger sets the encoder logger.
func WithLogger(logger *slog.Logger) NativeOption {
	return func(e *NativeEncoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewNativeEncoder acquires an engine handle. Outputs are written under scratchDir.
func NewNativeEncoder(engine Engine, scratchDir string, opts ...NativeOption) (*NativeEncoder, error) {
	if engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "codec", "create encoder", "engine is required", nil)
	}
	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "codec", "create encoder", "scratch directory is required", nil)
	}
	handle, err := engine.CreateHandle()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "codec", "create handle", "", err)
	}
	enc := &NativeEncoder{
		engine:     engine,
		scratchDir: scratchDir,
		logger:     slog.New(slog.DiscardHandler),
		handle:     handle,
	}
	for _, opt := range opts {
		opt(enc)
	}
	enc.logger = enc.logger.With(slog.String("component", "codec"))
	return enc, nil
}

// Encode runs one engine encode. Cancelling ctx forwards a cancel request to
// the engine.
func (e *NativeEncoder) Encode(ctx context.Context, sourcePath string, format Format, progress func(float64)) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if strings.TrimSpace(sourcePath) == "" {
		return "", services.Wrap(services.ErrValidation, "codec", "encode", "source path is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", &EncodingError{Source: sourcePath, Format: format, Diagnostic: "cancelled before start", Err: err}
	}

	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		return "", ErrClosed
	}
	e.inflight.Add(1)
	e.mu.Unlock()
	defer e.inflight.Done()

	if err := os.MkdirAll(e.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	output := OutputPath(e.scratchDir, sourcePath, format)

	stop := context.AfterFunc(ctx, e.Cancel)
	defer stop()

	tracker := &progressTracker{emit: progress}
	ok := e.engine.Encode(e.handle, sourcePath, output, format, tracker.report)
	if !ok {
		diagnostic := e.engine.LastError(e.handle)
		cause := services.ErrExternalTool
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		e.logger.Debug("engine encode failed",
			slog.String("source", sourcePath),
			slog.String("format", format.String()),
			slog.String("diagnostic", diagnostic),
		)
		return "", &EncodingError{Source: sourcePath, Format: format, Diagnostic: diagnostic, Err: cause}
	}
	tracker.report(1)
	return output, nil
}

// Cancel asks the engine to abort the in-flight encode.
func (e *NativeEncoder) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.engine.RequestCancel(e.handle)
}

// Close waits for in-flight encodes and destroys the engine handle. It is
// safe to call more than once.
func (e *NativeEncoder) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closing = true
		e.mu.Unlock()

		e.inflight.Wait()

		e.mu.Lock()
		e.engine.DestroyHandle(e.handle)
		e.destroyed = true
		e.mu.Unlock()
	})
	return nil
}

// progressTracker clamps engine fractions to [0, 1] and drops regressions.
// Callbacks may race, so emission happens under the lock to keep the
// delivered sequence ordered.
type progressTracker struct {
	mu   sync.Mutex
	last float64
	seen bool
	emit func(float64)
}

func (p *progressTracker) report(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen && fraction <= p.last {
		return
	}
	p.seen = true
	p.last = fraction
	if p.emit != nil {
		p.emit(fraction)
	}
}

var _ Encoder = (*NativeEncoder)(nil)
