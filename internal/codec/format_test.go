package codec_test

import (
	"errors"
	"path/filepath"
	"testing"

	"banshee/internal/codec"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  codec.Format
		ext   string
	}{
		{"mp3", codec.FormatMP3, ".mp3"},
		{" OGG ", codec.FormatOgg, ".ogg"},
		{"vorbis", codec.FormatOgg, ".ogg"},
		{"flac", codec.FormatFLAC, ".flac"},
		{"m4a", codec.FormatAAC, ".m4a"},
		{"aac", codec.FormatAAC, ".m4a"},
		{".opus", codec.FormatOpus, ".opus"},
		{"av1", codec.FormatAV1, ".mkv"},
	}
	for _, tt := range tests {
		got, err := codec.ParseFormat(tt.input)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error: %v", tt.input, err)
		}
		if got != tt.want || got.Extension() != tt.ext {
			t.Fatalf("ParseFormat(%q) = %q (%s), want %q (%s)", tt.input, got, got.Extension(), tt.want, tt.ext)
		}
	}
	if _, err := codec.ParseFormat("wma"); !errors.Is(err, codec.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFormatsAreValid(t *testing.T) {
	formats := codec.Formats()
	if len(formats) != 6 {
		t.Fatalf("expected 6 formats, got %d", len(formats))
	}
	for _, f := range formats {
		if !f.Valid() || f.Extension() == "" {
			t.Fatalf("format %q should be valid with an extension", f)
		}
	}
	if codec.FormatAV1.Audio() || !codec.FormatFLAC.Audio() {
		t.Fatal("unexpected Audio classification")
	}
}

func TestOutputPath(t *testing.T) {
	got := codec.OutputPath("/scratch", "/music/Artist/01 Song.wav", codec.FormatOpus)
	if want := filepath.Join("/scratch", "01 Song.opus"); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
	if got := codec.OutputPath("/scratch", "/music/.hidden", codec.FormatMP3); got != filepath.Join("/scratch", ".hidden.mp3") {
		t.Fatalf("dotfile OutputPath = %q", got)
	}
}
