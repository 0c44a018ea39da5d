package drapto

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Event types carried by ProgressUpdate.
const (
	EventStageProgress    = "stage_progress"
	EventEncodingProgress = "encoding_progress"
	EventEncodingComplete = "encoding_complete"
	EventWarning          = "warning"
	EventError            = "error"
)

// ProgressUpdate captures one Drapto progress event.
type ProgressUpdate struct {
	Type    string
	Percent float64
	Stage   string
	Message string
	ETA     time.Duration
	Speed   float64
	FPS     float64
	Warning string
	Err     string
}

// Client runs one Drapto encode.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithPreset passes --preset to drapto. Negative values leave drapto's default.
func WithPreset(preset int) Option {
	return func(c *CLI) { c.preset = preset }
}

// CLI wraps the drapto command-line encoder.
type CLI struct {
	binary string
	preset int
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "drapto", preset: -1}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode launches drapto encode and returns the output path.
func (c *CLI) Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error) {
	outputPath, err := expectedOutput(inputPath, outputDir)
	if err != nil {
		return "", err
	}

	args := []string{"encode", "--input", inputPath, "--output", filepath.Dir(outputPath), "--responsive", "--progress-json"}
	if c.preset >= 0 {
		args = append(args, "--preset", strconv.Itoa(c.preset))
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start drapto: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		update, ok := parseProgressLine(scanner.Bytes())
		if ok && progress != nil {
			progress(update)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return "", fmt.Errorf("read drapto output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("drapto encode failed: %s: %w", lastLine(detail), err)
		}
		return "", fmt.Errorf("drapto encode failed: %w", err)
	}
	return outputPath, nil
}

func parseProgressLine(line []byte) (ProgressUpdate, bool) {
	var payload struct {
		Type       string  `json:"type"`
		Percent    float64 `json:"percent"`
		Stage      string  `json:"stage"`
		Message    string  `json:"message"`
		ETASeconds float64 `json:"eta_seconds"`
		Speed      float64 `json:"speed"`
		FPS        float64 `json:"fps"`
		Title      string  `json:"title"`
	}
	if err := json.Unmarshal(line, &payload); err != nil {
		return ProgressUpdate{}, false
	}
	update := ProgressUpdate{
		Type:    payload.Type,
		Percent: payload.Percent,
		Stage:   payload.Stage,
		Message: payload.Message,
		ETA:     time.Duration(payload.ETASeconds * float64(time.Second)),
		Speed:   payload.Speed,
		FPS:     payload.FPS,
	}
	switch payload.Type {
	case EventWarning:
		update.Warning = payload.Message
	case EventError:
		update.Err = joinNonEmpty(": ", payload.Title, payload.Message)
	}
	return update, true
}

// expectedOutput mirrors drapto's naming: <outputDir>/<stem>.mkv.
func expectedOutput(inputPath, outputDir string) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", errors.New("input path required")
	}
	cleanOutputDir := strings.TrimSpace(outputDir)
	if cleanOutputDir == "" {
		return "", errors.New("output directory required")
	}
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(cleanOutputDir, stem+".mkv"), nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var _ Client = (*CLI)(nil)
