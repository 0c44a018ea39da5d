package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"banshee/internal/codec"
	"banshee/internal/logging"
	"banshee/internal/services"
	"banshee/internal/transaction"
)

// Precision is the number of progress units assigned to each track.
const Precision = 1000

// ErrAlreadyStarted is returned by AddTrack once the batch has begun.
var ErrAlreadyStarted = errors.New("encode transaction already started")

// Option configures an encode Transaction.
type Option func(*options)

type options struct {
	name           string
	logger         *slog.Logger
	showStatus     bool
	onTrackEncoded func(Track, string)
}

// WithName overrides the display name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used for per-track diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithShowStatus controls whether the transaction counts toward visible progress.
func WithShowStatus(show bool) Option {
	return func(o *options) { o.showStatus = show }
}

// WithTrackEncoded registers a callback fired after each successful track with
// the original track and the produced output path. It runs on the
// transaction's goroutine.
func WithTrackEncoded(fn func(Track, string)) Option {
	return func(o *options) { o.onTrackEncoded = fn }
}

// Transaction encodes a batch of tracks into a single format.
type Transaction struct {
	*transaction.Base

	encoder        codec.Encoder
	format         codec.Format
	onTrackEncoded func(Track, string)

	mu       sync.Mutex
	frozen   bool
	tracks   []Track
	results  []Result
	failures []Failure
}

// New builds a pending encode transaction in the encode category.
func New(encoder codec.Encoder, format codec.Format, opts ...Option) (*Transaction, error) {
	if encoder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "encoding", "new transaction", "encoder is required", nil)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", codec.ErrUnsupportedFormat, format)
	}
	cfg := options{showStatus: true, name: fmt.Sprintf("Encode to %s", format)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	t := &Transaction{
		encoder:        encoder,
		format:         format,
		onTrackEncoded: cfg.onTrackEncoded,
	}
	t.Base = transaction.NewBase(transaction.CategoryEncode, cfg.name, t,
		transaction.WithShowStatus(cfg.showStatus),
		transaction.WithLogger(cfg.logger),
	)
	return t, nil
}

// Format returns the target format.
func (t *Transaction) Format() codec.Format { return t.format }

// AddTrack appends track to the batch. It fails once the batch has started.
func (t *Transaction) AddTrack(track Track) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen || t.State() != transaction.StatePending {
		return ErrAlreadyStarted
	}
	t.tracks = append(t.tracks, track)
	return nil
}

// Tracks returns the queued tracks in order.
func (t *Transaction) Tracks() []Track {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.tracks)
}

// Results returns the successfully encoded tracks in order.
func (t *Transaction) Results() []Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.results)
}

// Failures returns the tracks the encoder rejected.
func (t *Transaction) Failures() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.failures)
}

// Interrupt aborts the in-flight encode when the transaction is cancelled.
func (t *Transaction) Interrupt() {
	t.encoder.Cancel()
}

// Run encodes every track in insertion order.
func (t *Transaction) Run(ctx context.Context) error {
	t.mu.Lock()
	t.frozen = true
	tracks := slices.Clone(t.tracks)
	t.mu.Unlock()

	logger := logging.WithContext(ctx, t.Logger()).With(logging.String("format", t.format.String()))
	total := int64(len(tracks))
	t.SetTotal(Precision * total)
	logger.Info("encode batch started", logging.Int("tracks", len(tracks)), logging.EventType("encode_started"))

	sampler := logging.NewProgressSampler(25)
	for i, track := range tracks {
		if t.Cancelled() || ctx.Err() != nil {
			logger.Info("encode batch cancelled",
				logging.Int("finished", i),
				logging.Int("remaining", len(tracks)-i),
				logging.EventType("encode_cancelled"),
			)
			return nil
		}

		t.SetStatus(fmt.Sprintf("Encoding %s (%d/%d)", track.DisplayName(), i+1, len(tracks)))
		done := Precision * int64(i)
		sampler.Reset()
		output, err := t.encoder.Encode(ctx, track.Path, t.format, func(fraction float64) {
			if t.Cancelled() {
				return
			}
			t.SetCurrent(done + int64(math.Round(Precision*fraction)))
			if sampler.ShouldLog(fraction*100, track.Path) {
				logger.Debug("encode progress",
					logging.String("source", track.Path),
					logging.Float64("percent", math.Round(fraction*1000)/10),
				)
			}
		})
		if err != nil {
			if t.Cancelled() || services.IsCancellation(err) {
				continue
			}
			logging.WarnWithContext(logger, "track encode failed; continuing with next track", "track_encode_failed",
				logging.String("source", track.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the source file with ffprobe"),
				logging.String(logging.FieldImpact, "track skipped"),
			)
			t.mu.Lock()
			t.failures = append(t.failures, Failure{Track: track, Err: err})
			t.mu.Unlock()
		} else {
			t.mu.Lock()
			t.results = append(t.results, Result{Track: track, OutputPath: output})
			t.mu.Unlock()
			logger.Info("track encoded",
				logging.String("source", track.Path),
				logging.String("output", output),
				logging.EventType("track_encoded"),
			)
			if t.onTrackEncoded != nil {
				t.onTrackEncoded(track, output)
			}
		}
		// An encoder may finish the item after Cancel; progress stays where
		// it was when cancellation was requested.
		if !t.Cancelled() {
			t.SetCurrent(done + Precision)
		}
	}

	if t.Cancelled() {
		return nil
	}
	failures := len(t.Failures())
	t.SetStatus(fmt.Sprintf("Encoded %d of %d tracks", len(tracks)-failures, len(tracks)))
	logger.Info("encode batch finished",
		logging.Int("encoded", len(tracks)-failures),
		logging.Int("failed", failures),
		logging.EventType("encode_finished"),
	)
	return nil
}

var (
	_ transaction.Transaction = (*Transaction)(nil)
	_ transaction.Interrupter = (*Transaction)(nil)
)
