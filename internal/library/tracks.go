package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const trackColumns = "id, path, title, artist, album, format, duration_seconds, size_bytes, imported_at, updated_at"

// UpsertTrack inserts track or refreshes the row sharing its path. The stored
// row, including its ID, is returned.
func (s *Store) UpsertTrack(ctx context.Context, track Track) (*Track, error) {
	ctx = ensureContext(ctx)
	track.Path = strings.TrimSpace(track.Path)
	if track.Path == "" {
		return nil, errors.New("track path required")
	}
	if strings.TrimSpace(track.Title) == "" {
		return nil, errors.New("track title required")
	}
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx, `
INSERT INTO tracks (path, title, artist, album, format, duration_seconds, size_bytes, imported_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    title = excluded.title,
    artist = excluded.artist,
    album = excluded.album,
    format = excluded.format,
    duration_seconds = excluded.duration_seconds,
    size_bytes = excluded.size_bytes,
    updated_at = excluded.updated_at`,
		track.Path, track.Title, track.Artist, track.Album, track.Format,
		track.DurationSeconds, track.SizeBytes, now, now,
	); err != nil {
		return nil, fmt.Errorf("upsert track: %w", err)
	}
	stored, err := s.TrackByPath(ctx, track.Path)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert track: %s not found after write", track.Path)
	}
	return stored, nil
}

// TrackByPath returns the track stored for path, or nil when absent.
func (s *Store) TrackByPath(ctx context.Context, path string) (*Track, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+trackColumns+" FROM tracks WHERE path = ?", path)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by path: %w", err)
	}
	return track, nil
}

// ListTracks returns tracks ordered by artist then title. A blank filter
// matches everything; otherwise title, artist and album are searched.
func (s *Store) ListTracks(ctx context.Context, filter string) ([]*Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks"
	var args []any
	if filter = strings.TrimSpace(filter); filter != "" {
		like := "%" + filter + "%"
		query += " WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?"
		args = append(args, like, like, like)
	}
	query += " ORDER BY artist COLLATE NOCASE, title COLLATE NOCASE, id"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// CountTracks reports the number of stored tracks.
func (s *Store) CountTracks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// RemoveTrack deletes the track stored for path. Missing rows are not an error.
func (s *Store) RemoveTrack(ctx context.Context, path string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM tracks WHERE path = ?", path); err != nil {
		return fmt.Errorf("remove track: %w", err)
	}
	return nil
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track       Track
		importedRaw sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&track.ID,
		&track.Path,
		&track.Title,
		&track.Artist,
		&track.Album,
		&track.Format,
		&track.DurationSeconds,
		&track.SizeBytes,
		&importedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	track.ImportedAt = parseTime(importedRaw)
	track.UpdatedAt = parseTime(updatedRaw)
	return &track, nil
}
