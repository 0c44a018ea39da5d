package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the closed set of encode targets.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOgg  Format = "ogg"
	FormatFLAC Format = "flac"
	FormatAAC  Format = "aac"
	FormatOpus Format = "opus"
	FormatAV1  Format = "av1"
)

var formatExtensions = map[Format]string{
	FormatMP3:  ".mp3",
	FormatOgg:  ".ogg",
	FormatFLAC: ".flac",
	FormatAAC:  ".m4a",
	FormatOpus: ".opus",
	FormatAV1:  ".mkv",
}

var formatAliases = map[string]Format{
	"vorbis": FormatOgg,
	"m4a":    FormatAAC,
	"mkv":    FormatAV1,
}

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{FormatMP3, FormatOgg, FormatFLAC, FormatAAC, FormatOpus, FormatAV1}
}

// ParseFormat resolves a user supplied format name or alias.
func ParseFormat(value string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	name = strings.TrimPrefix(name, ".")
	if _, ok := formatExtensions[Format(name)]; ok {
		return Format(name), nil
	}
	if format, ok := formatAliases[name]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
}

func (f Format) String() string { return string(f) }

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, ok := formatExtensions[f]
	return ok
}

// Extension returns the output file extension including the leading dot.
func (f Format) Extension() string {
	return formatExtensions[f]
}

// Audio reports whether f is an audio-only target.
func (f Format) Audio() bool {
	return f.Valid() && f != FormatAV1
}

// OutputPath places the encoded form of source under scratchDir using the
// source's base name and the format's extension.
func OutputPath(scratchDir, source string, format Format) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(scratchDir, stem+format.Extension())
}
