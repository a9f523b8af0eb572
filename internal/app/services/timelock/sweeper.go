package timelock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/time_vault/internal/app/system"
	"github.com/R3E-Network/time_vault/pkg/logger"
)

var _ system.Service = (*Sweeper)(nil)

// Sweeper periodically sweeps the vault's incidental native-currency balance
// to the controller on a cron schedule. An empty balance is a quiet no-op.
type Sweeper struct {
	service  *Service
	log      *logger.Logger
	schedule string

	mu      sync.Mutex
	runner  *cron.Cron
	running bool
}

// NewSweeper creates a scheduled native sweeper. The schedule is a cron spec,
// e.g. "@daily" or "@every 6h".
func NewSweeper(service *Service, schedule string, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("native-sweeper")
	}
	return &Sweeper{
		service:  service,
		log:      log,
		schedule: schedule,
	}
}

func (s *Sweeper) Name() string { return "native-sweeper" }

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	runner := cron.New()
	if _, err := runner.AddFunc(s.schedule, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	runner.Start()

	s.runner = runner
	s.running = true
	s.log.WithField("schedule", s.schedule).Info("native sweeper started")
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.running = false
	s.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		s.log.Info("native sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	amount, err := s.service.SweepNative(ctx, s.service.Controller())
	if err != nil {
		if errors.Is(err, ErrNothingToRelease) {
			return
		}
		s.log.WithError(err).Warn("scheduled native sweep failed")
		return
	}
	s.log.WithField("amount", amount.String()).Info("scheduled native sweep completed")
}
