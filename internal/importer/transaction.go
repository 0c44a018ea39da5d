package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"banshee/internal/library"
	"banshee/internal/logging"
	"banshee/internal/media/ffprobe"
	"banshee/internal/services"
	"banshee/internal/transaction"
)

// TrackStore persists imported tracks.
type TrackStore interface {
	UpsertTrack(ctx context.Context, track library.Track) (*library.Track, error)
}

// Prober inspects a media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Failure records a file that could not be imported.
type Failure struct {
	Path string
	Err  error
}

// Option configures an import Transaction.
type Option func(*options)

type options struct {
	name       string
	extensions []string
	probe      Prober
	logger     *slog.Logger
	showStatus bool
}

// WithExtensions limits the scan to files with these extensions.
func WithExtensions(exts []string) Option {
	return func(o *options) { o.extensions = exts }
}

// WithProber enables tag and duration probing.
func WithProber(probe Prober) Option {
	return func(o *options) { o.probe = probe }
}

// WithFFprobe probes files with the given ffprobe binary.
func WithFFprobe(binary string) Option {
	return WithProber(func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	})
}

// WithLogger sets the transaction logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithName overrides the display name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithShowStatus controls whether the import counts toward visible progress.
func WithShowStatus(show bool) Option {
	return func(o *options) { o.showStatus = show }
}

// Transaction imports every matching file below a root directory.
type Transaction struct {
	*transaction.Base

	store      TrackStore
	root       string
	extensions map[string]struct{}
	probe      Prober

	mu       sync.Mutex
	imported []*library.Track
	failures []Failure
}

// New builds a pending import transaction in the import category.
func New(store TrackStore, root string, opts ...Option) (*Transaction, error) {
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "importer", "new transaction", "track store is required", nil)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrValidation, "importer", "new transaction", "root directory is required", nil)
	}
	cfg := options{showStatus: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.name == "" {
		cfg.name = "Import " + filepath.Base(root)
	}
	t := &Transaction{
		store:      store,
		root:       filepath.Clean(root),
		extensions: make(map[string]struct{}, len(cfg.extensions)),
		probe:      cfg.probe,
	}
	for _, ext := range cfg.extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		t.extensions[ext] = struct{}{}
	}
	t.Base = transaction.NewBase(transaction.CategoryImport, cfg.name, t,
		transaction.WithShowStatus(cfg.showStatus),
		transaction.WithLogger(cfg.logger),
	)
	return t, nil
}

// Root returns the scanned directory.
func (t *Transaction) Root() string { return t.root }

// Imported returns the stored tracks in scan order.
func (t *Transaction) Imported() []*library.Track {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.imported)
}

// Failures returns the files that were skipped.
func (t *Transaction) Failures() []Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.failures)
}

// Run scans the root and imports each file.
func (t *Transaction) Run(ctx context.Context) error {
	logger := logging.WithContext(ctx, t.Logger()).With(logging.String("root", t.root))

	t.SetStatus("Scanning " + t.root)
	files, err := t.scan(ctx)
	if err != nil {
		if t.Cancelled() || ctx.Err() != nil {
			return nil
		}
		return services.Wrap(services.ErrValidation, "importer", "scan", t.root, err)
	}
	t.SetTotal(int64(len(files)))
	logger.Info("import scan complete", logging.Int("files", len(files)), logging.EventType("import_started"))

	for i, path := range files {
		if t.Cancelled() || ctx.Err() != nil {
			logger.Info("import cancelled",
				logging.Int("finished", i),
				logging.Int("remaining", len(files)-i),
				logging.EventType("import_cancelled"),
			)
			return nil
		}
		t.SetStatus(fmt.Sprintf("Importing %s (%d/%d)", filepath.Base(path), i+1, len(files)))

		track, err := t.importFile(ctx, path)
		switch {
		case err != nil && (t.Cancelled() || services.IsCancellation(err)):
		case err != nil:
			logging.WarnWithContext(logger, "file import failed; skipping", "import_file_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file not added to library"),
			)
			t.mu.Lock()
			t.failures = append(t.failures, Failure{Path: path, Err: err})
			t.mu.Unlock()
		default:
			t.mu.Lock()
			t.imported = append(t.imported, track)
			t.mu.Unlock()
			logger.Debug("track imported",
				logging.String("path", path),
				logging.String("title", track.Title),
				logging.String("artist", track.Artist),
			)
		}
		t.SetCurrent(int64(i + 1))
	}

	if t.Cancelled() {
		return nil
	}
	imported := len(t.Imported())
	t.SetStatus(fmt.Sprintf("Imported %d of %d files", imported, len(files)))
	logger.Info("import finished",
		logging.Int("imported", imported),
		logging.Int("skipped", len(files)-imported),
		logging.EventType("import_finished"),
	)
	return nil
}

func (t *Transaction) scan(ctx context.Context) ([]string, error) {
	info, err := os.Stat(t.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", t.root)
	}
	var files []string
	err = filepath.WalkDir(t.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == t.root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != t.root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !t.matches(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func (t *Transaction) matches(path string) bool {
	if len(t.extensions) == 0 {
		return true
	}
	_, ok := t.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (t *Transaction) importFile(ctx context.Context, path string) (*library.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	meta := DeriveMetadata(t.root, path)
	track := library.Track{
		Path:      path,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		SizeBytes: info.Size(),
	}
	if t.probe != nil {
		result, err := t.probe(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
		if result.AudioStreamCount() == 0 && result.VideoStreamCount() == 0 {
			return nil, errors.New("no audio or video streams")
		}
		if title := NormalizeTag(result.Title()); title != "" {
			track.Title = title
		}
		if artist := NormalizeTag(result.Artist()); artist != "" {
			track.Artist = artist
		}
		if album := NormalizeTag(result.Album()); album != "" {
			track.Album = album
		}
		track.DurationSeconds = result.DurationSeconds()
	}
	return t.store.UpsertTrack(ctx, track)
}

var _ transaction.Transaction = (*Transaction)(nil)
