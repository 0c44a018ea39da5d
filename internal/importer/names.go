package importer

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Metadata holds the descriptive fields derived for one file.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// DeriveMetadata builds names for path from its location under root.
func DeriveMetadata(root, path string) Metadata {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var meta Metadata
	var dirs []string
	if rel, err := filepath.Rel(root, filepath.Dir(path)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		dirs = strings.Split(rel, string(filepath.Separator))
	}
	switch {
	case len(dirs) >= 2:
		meta.Artist = cleanName(dirs[len(dirs)-2])
		meta.Album = cleanName(dirs[len(dirs)-1])
	case len(dirs) == 1:
		meta.Artist = cleanName(dirs[0])
	}

	if artist, title, ok := strings.Cut(stem, " - "); ok && strings.TrimSpace(title) != "" && !isTrackNumber(artist) {
		meta.Artist = cleanName(artist)
		stem = title
	}
	meta.Title = cleanName(stripTrackNumber(stem))
	if meta.Title == "" {
		meta.Title = NormalizeTag(stem)
	}
	if meta.Title == "" {
		meta.Title = "Unknown Track"
	}
	return meta
}

// NormalizeTag NFC-normalizes a tag value and trims surrounding space.
func NormalizeTag(value string) string {
	return strings.TrimSpace(norm.NFC.String(value))
}

// cleanName turns a file or folder name into a display name.
func cleanName(value string) string {
	value = norm.NFC.String(value)
	var b strings.Builder
	prevSpace := false
	for _, r := range value {
		if r == '_' || unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return ""
	}
	return titleCaser.String(cleaned)
}

// stripTrackNumber drops a leading "01 ", "01. " or "01 - " prefix.
func stripTrackNumber(stem string) string {
	trimmed := strings.TrimLeftFunc(stem, unicode.IsDigit)
	if trimmed == stem || len(stem)-len(trimmed) > 3 {
		return stem
	}
	rest := strings.TrimLeft(trimmed, " .-_")
	if rest == "" || rest == trimmed {
		return stem
	}
	return rest
}

func isTrackNumber(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > 3 {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
