package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

// Daemon periodically refreshes every subscription and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *subscription.Store
	runner *pipeline.Runner

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *subscription.Store, runner *pipeline.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, runner, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "limpad.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers interrupted refreshes, and
// launches the sweep loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another limpa daemon instance is already running")
	}

	recovered, err := d.store.ResetStuckProcessing(ctx, "interrupted by daemon restart")
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("recover interrupted refreshes: %w", err)
	}
	if recovered > 0 {
		d.logger.Warn("reset interrupted refreshes", logging.Int64("subscriptions", recovered))
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go d.run(runCtx)

	d.logger.Info("limpa daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("refresh_interval_seconds", d.cfg.Workflow.RefreshInterval),
	)
	return nil
}

// Stop halts the sweep loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("limpa daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the sweep loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.RefreshInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *Daemon) sweep(ctx context.Context) {
	started := time.Now()
	result, err := d.runner.ProcessAll(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.logger.Error("sweep failed", logging.Error(err))
		return
	}
	d.logger.Info("sweep completed",
		logging.Int("refreshed", result.Refreshed),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
}
