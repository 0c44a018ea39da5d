package drapto

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"banshee/internal/codec"
)

type stubClient struct {
	updates []ProgressUpdate
	err     error
	block   bool
	written string
}

func (s *stubClient) Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error) {
	for _, update := range s.updates {
		progress(update)
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	out, err := expectedOutput(inputPath, outputDir)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, []byte("av1"), 0o644); err != nil {
		return "", err
	}
	s.written = out
	return out, nil
}

func TestEngineForwardsEncodingProgress(t *testing.T) {
	client := &stubClient{updates: []ProgressUpdate{
		{Type: EventStageProgress, Percent: 100, Stage: "analysis"},
		{Type: EventEncodingProgress, Percent: 40},
		{Type: EventWarning, Warning: "odd crop"},
		{Type: EventEncodingComplete, Percent: 100},
	}}
	engine := NewEngine(client, nil)
	h, _ := engine.CreateHandle()

	dir := t.TempDir()
	output := filepath.Join(dir, "clip.mkv")
	var seen []float64
	if !engine.Encode(h, "/videos/clip.mov", output, codec.FormatAV1, func(f float64) { seen = append(seen, f) }) {
		t.Fatalf("Encode failed: %s", engine.LastError(h))
	}
	if !slices.Equal(seen, []float64{0.4, 1}) {
		t.Fatalf("progress = %v", seen)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output at %s: %v", output, err)
	}
}

func TestEngineRenamesWhenOutputDiffers(t *testing.T) {
	client := &stubClient{}
	engine := NewEngine(client, nil)
	h, _ := engine.CreateHandle()

	output := filepath.Join(t.TempDir(), "renamed.mkv")
	if !engine.Encode(h, "/videos/clip.mov", output, codec.FormatAV1, nil) {
		t.Fatalf("Encode failed: %s", engine.LastError(h))
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected renamed output: %v", err)
	}
	if _, err := os.Stat(client.written); !os.IsNotExist(err) {
		t.Fatalf("original output should be moved, stat err = %v", err)
	}
}

func TestEnginePrefersReporterDiagnostic(t *testing.T) {
	client := &stubClient{
		updates: []ProgressUpdate{{Type: EventError, Err: "Encode failed: svt-av1 crashed"}},
		err:     errors.New("exit status 1"),
	}
	engine := NewEngine(client, nil)
	h, _ := engine.CreateHandle()

	if engine.Encode(h, "/videos/clip.mov", filepath.Join(t.TempDir(), "clip.mkv"), codec.FormatAV1, nil) {
		t.Fatal("expected failure")
	}
	if got := engine.LastError(h); got != "Encode failed: svt-av1 crashed" {
		t.Fatalf("LastError = %q", got)
	}
}

func TestEngineRejectsAudioFormats(t *testing.T) {
	engine := NewEngine(&stubClient{}, nil)
	h, _ := engine.CreateHandle()
	if engine.Encode(h, "/music/a.wav", "/tmp/a.mp3", codec.FormatMP3, nil) {
		t.Fatal("expected mp3 to be rejected")
	}
	if !strings.Contains(engine.LastError(h), "cannot produce mp3") {
		t.Fatalf("LastError = %q", engine.LastError(h))
	}
}

func TestEngineCancel(t *testing.T) {
	engine := NewEngine(&stubClient{block: true, updates: []ProgressUpdate{{Type: EventEncodingProgress, Percent: 10}}}, nil)
	h, _ := engine.CreateHandle()

	started := make(chan struct{})
	result := make(chan bool, 1)
	go func() {
		result <- engine.Encode(h, "/videos/clip.mov", filepath.Join(t.TempDir(), "clip.mkv"), codec.FormatAV1, func(float64) {
			close(started)
		})
	}()
	<-started
	engine.RequestCancel(h)

	select {
	case ok := <-result:
		if ok {
			t.Fatal("cancelled encode must fail")
		}
		if engine.LastError(h) != "cancelled" {
			t.Fatalf("LastError = %q", engine.LastError(h))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("encode did not stop after cancel")
	}
}

func TestEngineCancelBeforeStart(t *testing.T) {
	engine := NewEngine(&stubClient{}, nil)
	h, _ := engine.CreateHandle()
	engine.RequestCancel(h)
	if engine.Encode(h, "/videos/clip.mov", filepath.Join(t.TempDir(), "clip.mkv"), codec.FormatAV1, nil) {
		t.Fatal("expected pending cancel to abort the next encode")
	}
}
