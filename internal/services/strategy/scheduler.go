package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
)

// Scheduler drives the runner on a fixed interval. Each tick it loads the
// active strategies and runs the ones that are due. Degraded and inactive
// strategies never reach the runner because the store only returns active
// ones.
type Scheduler struct {
	runner   *Runner
	logger   *common.Logger
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that ticks at the given interval.
func NewScheduler(runner *Runner, logger *common.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the background loop. Safe to call once; Stop shuts it down.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.safeGo("strategy-scheduler", func() {
		defer s.wg.Done()
		s.loop(ctx)
	})
	s.logger.Info().Dur("interval", s.interval).Msg("Strategy scheduler started")
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Msg("Strategy scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every due active strategy once. A failure in one strategy is
// logged and does not stop the others.
func (s *Scheduler) tick(ctx context.Context) {
	strategies, err := s.runner.storage.StrategyStore().ListActiveStrategies(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list active strategies")
		return
	}

	for _, strategy := range strategies {
		if ctx.Err() != nil {
			return
		}
		if !s.runner.due(strategy) {
			continue
		}
		if _, err := s.runner.RunStrategy(ctx, strategy.ID); err != nil {
			s.logger.Error().
				Err(err).
				Int64("strategy", strategy.ID).
				Str("type", string(strategy.Type)).
				Msg("Strategy tick failed")
		}
	}
}

// safeGo runs fn in a goroutine with panic recovery so a panicking strategy
// cannot take down the server.
func (s *Scheduler) safeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Str("goroutine", name).
					Interface("panic", r).
					Msg("Recovered from panic in background goroutine")
			}
		}()
		fn()
	}()
}
