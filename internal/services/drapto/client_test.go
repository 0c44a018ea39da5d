package drapto

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/drapto"))
	if cli.binary != "/opt/drapto" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIEncodeRequiresInput(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Encode(context.Background(), "", "/tmp", nil); err == nil {
		t.Fatal("expected error when input path is empty")
	}
}

func TestCLIEncodeRequiresOutputDir(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Encode(context.Background(), "/media/clip.mkv", " ", nil); err == nil {
		t.Fatal("expected error when output directory is empty")
	}
}

func TestCLIEncodeIncludesPreset(t *testing.T) {
	captured := setHelperCommand(t, "success")

	cli := NewCLI(WithPreset(4))
	tempDir := t.TempDir()
	if _, err := cli.Encode(context.Background(), filepath.Join(tempDir, "clip.mkv"), filepath.Join(tempDir, "out"), nil); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	args := *captured
	for _, flag := range []string{"--responsive", "--progress-json"} {
		if findArg(args, flag) == -1 {
			t.Fatalf("expected %s in args %v", flag, args)
		}
	}
	idx := findArg(args, "--preset")
	if idx == -1 || idx+1 >= len(args) || args[idx+1] != "4" {
		t.Fatalf("expected --preset 4 in args %v", args)
	}
}

func TestCLIEncodeOmitsPresetByDefault(t *testing.T) {
	captured := setHelperCommand(t, "success")

	cli := NewCLI()
	tempDir := t.TempDir()
	if _, err := cli.Encode(context.Background(), filepath.Join(tempDir, "clip.mkv"), tempDir, nil); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if findArg(*captured, "--preset") != -1 {
		t.Fatalf("unexpected --preset in %v", *captured)
	}
}

func TestCLIEncodeSuccess(t *testing.T) {
	setHelperCommand(t, "success")

	cli := NewCLI()
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "source.mkv")
	outputDir := filepath.Join(tempDir, "encoded")

	var updates []ProgressUpdate
	path, err := cli.Encode(context.Background(), input, outputDir, func(update ProgressUpdate) {
		updates = append(updates, update)
	})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if want := filepath.Join(outputDir, "source.mkv"); path != want {
		t.Fatalf("expected output path %q, got %q", want, path)
	}
	if len(updates) != 4 {
		t.Fatalf("expected 4 progress updates, got %d", len(updates))
	}
	middle := updates[1]
	if middle.Type != EventEncodingProgress || middle.Stage != "encoding" {
		t.Fatalf("unexpected middle update %+v", middle)
	}
	if middle.ETA != 5*time.Minute || middle.Speed != 3.0 || middle.FPS != 72.0 {
		t.Fatalf("unexpected encoding stats %+v", middle)
	}
	if updates[2].Warning != "audio stream has no language tag" {
		t.Fatalf("expected warning update, got %+v", updates[2])
	}
}

func TestCLIEncodeFailureIncludesStderr(t *testing.T) {
	setHelperCommand(t, "failure")

	cli := NewCLI()
	tempDir := t.TempDir()
	_, err := cli.Encode(context.Background(), filepath.Join(tempDir, "clip.mkv"), tempDir, nil)
	if err == nil {
		t.Fatal("expected encode failure error")
	}
	if !strings.Contains(err.Error(), "no video stream found") {
		t.Fatalf("error %q should carry drapto stderr", err)
	}
}

func TestCLIEncodeSkipsInvalidJSON(t *testing.T) {
	setHelperCommand(t, "badjson")

	cli := NewCLI()
	tempDir := t.TempDir()
	var updates []ProgressUpdate
	if _, err := cli.Encode(context.Background(), filepath.Join(tempDir, "clip.mkv"), tempDir, func(update ProgressUpdate) {
		updates = append(updates, update)
	}); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(updates) != 1 || updates[0].Percent != 75 {
		t.Fatalf("expected one 75%% update, got %+v", updates)
	}
}

func TestParseProgressLineError(t *testing.T) {
	update, ok := parseProgressLine([]byte(`{"type":"error","title":"Encode failed","message":"svt-av1 exited"}`))
	if !ok {
		t.Fatal("expected line to parse")
	}
	if update.Err != "Encode failed: svt-av1 exited" {
		t.Fatalf("Err = %q", update.Err)
	}
}

func setHelperCommand(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("DRAPTO_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("DRAPTO_HELPER_MODE") {
	case "success":
		fmt.Println(`{"type":"stage_progress","percent":0,"stage":"analysis","message":"begin"}`)
		fmt.Println(`{"type":"encoding_progress","percent":50,"stage":"encoding","eta_seconds":300,"speed":3.0,"fps":72.0}`)
		fmt.Println(`{"type":"warning","message":"audio stream has no language tag"}`)
		fmt.Println(`{"type":"encoding_complete","percent":100}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "probing input")
		fmt.Fprintln(os.Stderr, "no video stream found")
		os.Exit(1)
	case "badjson":
		fmt.Println("not-json")
		fmt.Println(`{"type":"encoding_progress","percent":75,"stage":"encoding","eta_seconds":120}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
