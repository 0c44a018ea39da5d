package app

import (
	"strings"

	"banshee/internal/codec"
	"banshee/internal/encoding"
	"banshee/internal/importer"
	"banshee/internal/logging"
)

// NewEncode builds an encode transaction for paths. The transaction gets its
// own engine handle, which is released when it finishes.
func (a *App) NewEncode(format codec.Format, paths []string, opts ...encoding.Option) (*encoding.Transaction, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if format == "" {
		parsed, err := codec.ParseFormat(a.cfg.Encoding.DefaultFormat)
		if err != nil {
			return nil, err
		}
		format = parsed
	}
	encoder, err := codec.NewNativeEncoder(a.engine, a.cfg.Paths.ScratchDir, codec.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	base := []encoding.Option{encoding.WithLogger(a.logger)}
	tx, err := encoding.New(encoder, format, append(base, opts...)...)
	if err != nil {
		_ = encoder.Close()
		return nil, err
	}
	for _, path := range paths {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		if err := tx.AddTrack(encoding.Track{Path: path}); err != nil {
			_ = encoder.Close()
			return nil, err
		}
	}
	go func() {
		<-tx.Done()
		if err := encoder.Close(); err != nil {
			a.logger.Debug("release encoder handle failed", logging.Error(err))
		}
	}()
	return tx, nil
}

// NewImport builds an import transaction for root. An empty root imports the
// configured library directory.
func (a *App) NewImport(root string, opts ...importer.Option) (*importer.Transaction, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(root) == "" {
		root = a.cfg.Paths.LibraryDir
	}
	base := []importer.Option{
		importer.WithExtensions(a.cfg.Import.Extensions),
		importer.WithLogger(a.logger),
	}
	if a.cfg.Import.ProbeDurations {
		base = append(base, importer.WithFFprobe(a.cfg.Encoding.FFprobeBinary))
	}
	return importer.New(a.store, root, append(base, opts...)...)
}
