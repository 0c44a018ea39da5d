package drapto

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"banshee/internal/codec"
	"banshee/internal/fileutil"
	"banshee/internal/logging"
)

// Engine exposes a Client as a codec.Engine for the av1 format.
type Engine struct {
	client  Client
	logger  *slog.Logger
	handles *codec.HandleTable
}

// NewEngine wraps client. A nil logger discards output.
func NewEngine(client Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		client:  client,
		logger:  logging.NewComponentLogger(logger, "drapto"),
		handles: codec.NewHandleTable(),
	}
}

func (e *Engine) CreateHandle() (codec.Handle, error) {
	return e.handles.Create(), nil
}

func (e *Engine) Encode(h codec.Handle, sourcePath, outputPath string, format codec.Format, progress func(float64)) bool {
	if format != codec.FormatAV1 {
		e.handles.Fail(h, fmt.Sprintf("drapto engine cannot produce %s", format))
		return false
	}
	ctx, ok := e.handles.Begin(h)
	if !ok {
		return false
	}

	var (
		mu         sync.Mutex
		diagnostic string
	)
	produced, err := e.client.Encode(ctx, sourcePath, filepath.Dir(outputPath), func(update ProgressUpdate) {
		switch update.Type {
		case EventEncodingProgress, EventEncodingComplete:
			if progress != nil {
				progress(update.Percent / 100)
			}
		case EventStageProgress:
			e.logger.Debug("drapto stage",
				logging.String("source", sourcePath),
				logging.String("stage", update.Stage),
				logging.String("message", update.Message),
			)
		case EventWarning:
			e.logger.Warn("drapto warning",
				logging.String("source", sourcePath),
				logging.String("warning", update.Warning),
			)
		case EventError:
			mu.Lock()
			diagnostic = update.Err
			mu.Unlock()
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			e.handles.End(h, "cancelled")
			return false
		}
		mu.Lock()
		detail := diagnostic
		mu.Unlock()
		if detail == "" {
			detail = err.Error()
		}
		e.handles.End(h, detail)
		return false
	}

	if produced != outputPath {
		if err := fileutil.MoveFile(produced, outputPath); err != nil {
			e.handles.End(h, fmt.Sprintf("move drapto output: %v", err))
			return false
		}
	}
	e.handles.End(h, "")
	return true
}

func (e *Engine) LastError(h codec.Handle) string { return e.handles.LastError(h) }
func (e *Engine) RequestCancel(h codec.Handle)    { e.handles.Cancel(h) }
func (e *Engine) DestroyHandle(h codec.Handle)    { e.handles.Destroy(h) }

var _ codec.Engine = (*Engine)(nil)
