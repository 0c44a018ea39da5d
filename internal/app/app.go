package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"

	"banshee/internal/codec"
	"banshee/internal/config"
	"banshee/internal/library"
	"banshee/internal/logging"
	"banshee/internal/notifications"
	"banshee/internal/workflow"
)

// ErrLocked is returned by Open when another banshee process holds the lock.
var ErrLocked = errors.New("another banshee instance is running")

// ErrClosed is returned once Shutdown has started.
var ErrClosed = errors.New("banshee is shutting down")

// Option configures Open.
type Option func(*App)

// WithEngine replaces the codec engine built from config.
func WithEngine(engine codec.Engine) Option {
	return func(a *App) { a.engine = engine }
}

// WithNotifier replaces the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(a *App) { a.notifier = notifier }
}

// App holds the process-wide services.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *library.Store
	manager  *workflow.Manager
	notifier notifications.Service
	engine   codec.Engine
	lock     *flock.Flock

	mu           sync.Mutex
	closed       bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// Open acquires the instance lock and builds the process services.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, cfg.LockPath())
	}

	store, err := library.Open(cfg.LibraryDBPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open library: %w", err)
	}

	a := &App{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "app"),
		store:  store,
		lock:   lock,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.notifier == nil {
		a.notifier = notifications.NewService(cfg)
	}
	if a.engine == nil {
		a.engine = NewEngine(cfg, logger)
	}
	a.manager = workflow.NewManager(logger,
		workflow.WithNotifier(a.notifier),
		workflow.WithRecorder(store),
	)
	a.logger.Debug("banshee opened",
		logging.String("library_db", store.Path()),
		logging.String("lock", cfg.LockPath()),
	)
	return a, nil
}

func (a *App) Config() *config.Config          { return a.cfg }
func (a *App) Logger() *slog.Logger            { return a.logger }
func (a *App) Store() *library.Store           { return a.store }
func (a *App) Manager() *workflow.Manager      { return a.manager }
func (a *App) Notifier() notifications.Service { return a.notifier }
func (a *App) Engine() codec.Engine            { return a.engine }

func (a *App) checkOpen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}

// Shutdown cancels all work, waits for the manager to go idle for at most the
// configured shutdown timeout, then closes the store and releases the lock.
// The store is closed even when the wait times out; the timeout is returned
// and transactions that finish later are not recorded in history.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.manager.CancelAll()

		waitCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout())
		defer cancel()
		var errs []error
		if err := a.manager.WaitIdle(waitCtx); err != nil {
			logging.WarnWithContext(a.logger, "transactions still running at shutdown", "shutdown_timeout",
				logging.Int("executing", len(a.manager.Executing())),
				logging.Duration("timeout", a.cfg.ShutdownTimeout()),
				logging.String(logging.FieldImpact, "history for those transactions may be lost"),
			)
			errs = append(errs, fmt.Errorf("wait for transactions: %w", err))
		}
		a.manager.DetachRecorder()
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close library: %w", err))
		}
		if err := a.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		a.shutdownErr = errors.Join(errs...)
		a.logger.Debug("banshee shut down")
	})
	return a.shutdownErr
}
