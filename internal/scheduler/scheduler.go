package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SweepFunc is the unit of work driven by the scheduler.
type SweepFunc func(ctx context.Context) error

// Scheduler owns the periodic violation sweep: one ticker, explicit start and
// stop, and a guard so sweeps never overlap. A tick arriving while the
// previous sweep is still running is skipped rather than queued.
type Scheduler struct {
	interval time.Duration
	sweep    SweepFunc
	logger   *zap.Logger

	inFlight atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
}

// New creates a scheduler; Start must be called to begin ticking.
func New(interval time.Duration, sweep SweepFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		sweep:    sweep,
		logger:   logger,
	}
}

// Start launches the ticking loop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(runCtx)
	s.logger.Info("sweep scheduler started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-progress sweep to finish.
func (s *Scheduler) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	<-s.done
	s.started = false
	s.logger.Info("sweep scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous sweep still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	if err := s.sweep(ctx); err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
	}
}
