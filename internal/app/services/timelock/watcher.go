package timelock

import (
	"context"
	"sync"
	"time"

	"github.com/R3E-Network/time_vault/internal/app/metrics"
	"github.com/R3E-Network/time_vault/internal/app/system"
	"github.com/R3E-Network/time_vault/pkg/logger"
)

var _ system.Service = (*Watcher)(nil)

// Watcher periodically scans the registry for matured, unreleased locks. It
// mutates nothing; release stays an explicit controller decision. The scan
// feeds the lock gauges and logs assets whose maturity has passed.
type Watcher struct {
	service  *Service
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewWatcher creates a lifecycle-managed maturity watcher.
func NewWatcher(service *Service, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.NewDefault("timelock-watcher")
	}
	return &Watcher{
		service:  service,
		log:      log,
		interval: time.Minute,
	}
}

// WithInterval overrides the scan interval.
func (w *Watcher) WithInterval(interval time.Duration) *Watcher {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

func (w *Watcher) Name() string { return "maturity-watcher" }

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				w.tick(runCtx)
			}
		}
	}()

	w.log.Info("maturity watcher started")
	return nil
}

func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.log.Info("maturity watcher stopped")
	return nil
}

func (w *Watcher) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	locks, err := w.service.ListLocks(ctx)
	if err != nil {
		w.log.WithError(err).Warn("maturity watcher scan failed")
		return
	}

	now := w.service.now()
	matured := 0
	for _, lock := range locks {
		if lock.Matured(now) {
			matured++
			w.log.WithField("asset", lock.Asset).
				WithField("maturity", lock.Maturity).
				Info("lock matured, awaiting release")
		}
	}

	metrics.SetActiveLocks(len(locks))
	metrics.SetMaturedLocks(matured)
}
