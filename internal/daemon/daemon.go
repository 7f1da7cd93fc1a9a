package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"preroll/internal/config"
	"preroll/internal/logging"
	"preroll/internal/preload"
	"preroll/internal/render"
)

const lockFileName = ".preroll.lock"

// Daemon owns the preloader lifecycle for one cache directory. A file lock on
// the cache directory keeps two preroll processes from evicting each other's
// segments.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	preloader *preload.Preloader

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New wires a renderer and preloader against the provided configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(cfg, logger)
	lockPath := filepath.Join(cfg.Paths.CacheDir, lockFileName)

	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		preloader: preload.NewPreloader(cfg, renderer, logger),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the cache lock and launches the preloader.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("cache directory %s is in use by another preroll instance", d.cfg.Paths.CacheDir)
	}

	if err := d.preloader.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.InfoContext(ctx, "daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the preloader and releases the cache lock. Safe to call twice.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.preloader.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release cache lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Preloader exposes the managed preloader for enqueueing and status reads.
func (d *Daemon) Preloader() *preload.Preloader {
	return d.preloader
}
