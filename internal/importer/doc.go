// Package importer scans a directory tree and records its media files in the
// library store as an import-category transaction.
//
// Files are visited in sorted path order. Titles, artists and albums come
// from container tags when ffprobe is enabled and fall back to names derived
// from the path ("Artist - Title.ext", or Artist/Album/Track.ext folders).
// Derived names are NFC-normalized and title-cased. A file that cannot be
// probed or stored is logged and skipped without failing the import.
package importer
