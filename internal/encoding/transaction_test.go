package encoding_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"banshee/internal/codec"
	"banshee/internal/encoding"
	"banshee/internal/logging"
	"banshee/internal/testsupport"
	"banshee/internal/transaction"
	"banshee/internal/workflow"
)

// scriptedEncoder emits fixed progress steps and fails selected sources.
type scriptedEncoder struct {
	mu        sync.Mutex
	steps     []float64
	fail      map[string]error
	block     map[string]bool
	attempts  []string
	cancel    chan struct{}
	cancelled int
	inFlight  chan string
	observe   func()
}

func newScriptedEncoder() *scriptedEncoder {
	return &scriptedEncoder{
		steps:    []float64{0.25, 0.5, 0.75},
		fail:     make(map[string]error),
		block:    make(map[string]bool),
		cancel:   make(chan struct{}),
		inFlight: make(chan string, 16),
	}
}

func (s *scriptedEncoder) Encode(ctx context.Context, source string, format codec.Format, progress func(float64)) (string, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, source)
	err := s.fail[source]
	block := s.block[source]
	steps := append([]float64(nil), s.steps...)
	observe := s.observe
	s.mu.Unlock()

	s.inFlight <- source
	if err != nil {
		return "", err
	}
	for _, step := range steps {
		progress(step)
		if observe != nil {
			observe()
		}
		if block {
			break
		}
	}
	if block {
		select {
		case <-s.cancel:
			return "", &codec.EncodingError{Source: source, Format: format, Diagnostic: "aborted", Err: context.Canceled}
		case <-ctx.Done():
			return "", &codec.EncodingError{Source: source, Format: format, Diagnostic: "aborted", Err: ctx.Err()}
		}
	}
	return codec.OutputPath("/scratch", source, format), nil
}

func (s *scriptedEncoder) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled++
	if s.cancelled == 1 {
		close(s.cancel)
	}
}

func (s *scriptedEncoder) attempted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.attempts...)
}

func newTransaction(t *testing.T, enc codec.Encoder, opts ...encoding.Option) *encoding.Transaction {
	t.Helper()
	tx, err := encoding.New(enc, codec.FormatOgg, append([]encoding.Option{encoding.WithLogger(logging.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tx
}

func addTracks(t *testing.T, tx *encoding.Transaction, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := tx.AddTrack(encoding.Track{Path: filepath.Join("/music", name)}); err != nil {
			t.Fatalf("AddTrack(%s): %v", name, err)
		}
	}
}

func TestFailingTrackIsSkipped(t *testing.T) {
	enc := newScriptedEncoder()
	enc.fail["/music/B.wav"] = &codec.EncodingError{Source: "/music/B.wav", Format: codec.FormatOgg, Diagnostic: "corrupt header"}

	var mu sync.Mutex
	var encoded []string
	tx := newTransaction(t, enc, encoding.WithTrackEncoded(func(track encoding.Track, output string) {
		mu.Lock()
		defer mu.Unlock()
		encoded = append(encoded, filepath.Base(track.Path)+"->"+output)
	}))
	addTracks(t, tx, "A.wav", "B.wav", "C.wav")

	if !tx.ThreadedRun() {
		t.Fatal("expected start")
	}
	out := testsupport.WaitDone(t, tx)
	if out.State != transaction.StateCompleted {
		t.Fatalf("state = %q, want completed", out.State)
	}
	if got := enc.attempted(); len(got) != 3 {
		t.Fatalf("attempted %v, want all three", got)
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"A.wav->/scratch/A.ogg", "C.wav->/scratch/C.ogg"}
	if len(encoded) != 2 || encoded[0] != want[0] || encoded[1] != want[1] {
		t.Fatalf("per-track callbacks = %v, want %v", encoded, want)
	}
	failures := tx.Failures()
	if len(failures) != 1 || failures[0].Track.Path != "/music/B.wav" {
		t.Fatalf("failures = %+v", failures)
	}
	var encErr *codec.EncodingError
	if !errors.As(failures[0].Err, &encErr) || encErr.Diagnostic != "corrupt header" {
		t.Fatalf("failure error = %v", failures[0].Err)
	}
	if got := len(tx.Results()); got != 2 {
		t.Fatalf("results = %d, want 2", got)
	}
	if snap := tx.Snapshot(); snap.Status != "Encoded 2 of 3 tracks" {
		t.Fatalf("status = %q", snap.Status)
	}
}

func TestProgressIsMonotonicAndComplete(t *testing.T) {
	enc := newScriptedEncoder()
	enc.steps = []float64{0.1, 0.3333, 0.9, 1}
	var tx *encoding.Transaction
	var mu sync.Mutex
	var samples []int64
	enc.observe = func() {
		cur, _ := tx.Progress()
		mu.Lock()
		samples = append(samples, cur)
		mu.Unlock()
	}
	tx = newTransaction(t, enc)
	addTracks(t, tx, "1.wav", "2.wav", "3.wav", "4.wav")

	tx.ThreadedRun()
	testsupport.WaitDone(t, tx)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(samples); i++ {
		if samples[i] < samples[i-1] {
			t.Fatalf("progress regressed: %v", samples)
		}
	}
	if samples[1] != 333 {
		t.Fatalf("expected rounded sub-track progress 333, got %d", samples[1])
	}
	cur, total := tx.Progress()
	if total != 4*encoding.Precision || cur != total {
		t.Fatalf("final progress %d/%d, want %d/%d", cur, total, 4*encoding.Precision, 4*encoding.Precision)
	}
}

func TestCancelStopsFurtherTracks(t *testing.T) {
	enc := newScriptedEncoder()
	enc.block["/music/3.wav"] = true
	tx := newTransaction(t, enc)
	addTracks(t, tx, "1.wav", "2.wav", "3.wav", "4.wav", "5.wav")

	tx.ThreadedRun()
	for i := 0; i < 3; i++ {
		select {
		case <-enc.inFlight:
		case <-time.After(5 * time.Second):
			t.Fatalf("track %d never started", i+1)
		}
	}
	testsupport.Eventually(t, "partial progress on third track", func() bool {
		cur, _ := tx.Progress()
		return cur == 2*encoding.Precision+250
	})
	tx.Cancel()

	out := testsupport.WaitDone(t, tx)
	if out.State != transaction.StateCancelled {
		t.Fatalf("state = %q, want cancelled", out.State)
	}
	if got := enc.attempted(); len(got) != 3 {
		t.Fatalf("attempted %v, want exactly three", got)
	}
	cur, _ := tx.Progress()
	if cur != 2*encoding.Precision+250 {
		t.Fatalf("final progress = %d, want %d", cur, 2*encoding.Precision+250)
	}
	if len(tx.Failures()) != 0 {
		t.Fatalf("cancelled track must not count as failure: %+v", tx.Failures())
	}
	enc.mu.Lock()
	defer enc.mu.Unlock()
	if enc.cancelled != 1 {
		t.Fatalf("encoder Cancel called %d times", enc.cancelled)
	}
}

// stubbornEncoder ignores Cancel. The gated source reports a quarter of its
// progress, waits for release, then reports more and succeeds.
type stubbornEncoder struct {
	gated    string
	reached  chan struct{}
	release  chan struct{}
	attempts []string
	mu       sync.Mutex
}

func (s *stubbornEncoder) Encode(_ context.Context, source string, format codec.Format, progress func(float64)) (string, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, source)
	s.mu.Unlock()
	if source == s.gated {
		progress(0.25)
		close(s.reached)
		<-s.release
		progress(0.9)
	}
	progress(1)
	return codec.OutputPath("/scratch", source, format), nil
}

func (s *stubbornEncoder) Cancel() {}

func TestCancelIgnoredByEncoderKeepsProgressBounded(t *testing.T) {
	enc := &stubbornEncoder{gated: "/music/3.wav", reached: make(chan struct{}), release: make(chan struct{})}
	tx := newTransaction(t, enc)
	addTracks(t, tx, "1.wav", "2.wav", "3.wav", "4.wav", "5.wav")

	tx.ThreadedRun()
	select {
	case <-enc.reached:
	case <-time.After(5 * time.Second):
		t.Fatal("third track never started")
	}
	tx.Cancel()
	close(enc.release)

	out := testsupport.WaitDone(t, tx)
	if out.State != transaction.StateCancelled {
		t.Fatalf("state = %q, want cancelled", out.State)
	}
	bound := int64(2*encoding.Precision + 250)
	if cur, _ := tx.Progress(); cur > bound {
		t.Fatalf("progress = %d after cancel, want at most %d", cur, bound)
	}
	enc.mu.Lock()
	defer enc.mu.Unlock()
	if len(enc.attempts) != 3 {
		t.Fatalf("attempted %v, want no track started after cancel", enc.attempts)
	}
}

func TestAddTrackRejectedOnceStarted(t *testing.T) {
	enc := newScriptedEncoder()
	enc.block["/music/1.wav"] = true
	tx := newTransaction(t, enc)
	addTracks(t, tx, "1.wav")
	tx.ThreadedRun()
	<-enc.inFlight

	if err := tx.AddTrack(encoding.Track{Path: "/music/late.wav"}); !errors.Is(err, encoding.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	tx.Cancel()
	testsupport.WaitDone(t, tx)
	if got := len(tx.Tracks()); got != 1 {
		t.Fatalf("tracks = %d, want 1", got)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := encoding.New(nil, codec.FormatMP3); err == nil {
		t.Fatal("expected error for nil encoder")
	}
	if _, err := encoding.New(newScriptedEncoder(), codec.Format("wma")); !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	tx, err := encoding.New(newScriptedEncoder(), codec.FormatFLAC, encoding.WithName("Rip album"), encoding.WithShowStatus(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tx.Name() != "Rip album" || tx.ShowStatus() || tx.Category() != transaction.CategoryEncode || tx.Format() != codec.FormatFLAC {
		t.Fatalf("unexpected attributes name=%q show=%v category=%q", tx.Name(), tx.ShowStatus(), tx.Category())
	}
}

func TestEmptyBatchCompletes(t *testing.T) {
	tx := newTransaction(t, newScriptedEncoder())
	tx.ThreadedRun()
	if out := testsupport.WaitDone(t, tx); out.State != transaction.StateCompleted {
		t.Fatalf("state = %q", out.State)
	}
}

func TestEncodeTransactionsSerializeThroughManager(t *testing.T) {
	mgr := workflow.NewManager(logging.NewNop())
	first := newScriptedEncoder()
	first.block["/music/slow.wav"] = true
	second := newScriptedEncoder()

	tx1 := newTransaction(t, first, encoding.WithName("first"))
	addTracks(t, tx1, "slow.wav")
	tx2 := newTransaction(t, second, encoding.WithName("second"))
	addTracks(t, tx2, "quick.wav")

	if !mgr.Register(tx1) || !mgr.Register(tx2) {
		t.Fatal("registration rejected")
	}
	<-first.inFlight
	if got := second.attempted(); len(got) != 0 {
		t.Fatalf("second batch started early: %v", got)
	}

	mgr.Cancel(transaction.CategoryEncode)
	if err := mgr.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if tx1.Outcome().State != transaction.StateCancelled || tx2.Outcome().State != transaction.StateCancelled {
		t.Fatalf("states = %q/%q", tx1.Outcome().State, tx2.Outcome().State)
	}
	if got := second.attempted(); len(got) != 0 {
		t.Fatalf("queued batch must never run: %v", got)
	}
}
