package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// LifecycleScheduler periodically expires active polls whose expiration date
// has passed. Expiry goes through the ledger, so it races safely with votes.
type LifecycleScheduler struct {
	repo        ports.PollRepository
	ledger      ports.VoteLedger
	clock       ports.Clock
	logger      *slog.Logger
	interval    time.Duration
	concurrency int
}

func NewLifecycleScheduler(repo ports.PollRepository, ledger ports.VoteLedger, opts ...Option) *LifecycleScheduler {
	o := buildOptions(opts)
	return &LifecycleScheduler{
		repo:        repo,
		ledger:      ledger,
		clock:       o.clock,
		logger:      o.logger,
		interval:    o.sweepInterval,
		concurrency: o.sweepConcurrency,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Sweep failures are logged and left for the next tick.
func (s *LifecycleScheduler) Run(ctx context.Context) {
	s.logger.Info("lifecycle scheduler started", "event", "scheduler_started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweepAndLog(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("lifecycle scheduler stopped", "event", "scheduler_stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep expires every due poll and reports how many it moved.
func (s *LifecycleScheduler) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.repo.List(ctx, ports.PollFilter{
		Status:    domain.StatusActive,
		ExpiresBy: &now,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring polls: %w", err)
	}

	var (
		g       errgroup.Group
		expired atomic.Int64
	)
	g.SetLimit(s.concurrency)

	for _, poll := range due {
		pollID := poll.ID
		g.Go(func() error {
			_, changed, err := s.ledger.Expire(ctx, pollID)
			if err != nil {
				return fmt.Errorf("failed to expire poll %d: %w", pollID, err)
			}
			if changed {
				expired.Add(1)
				metrics.IncExpired()
				s.logger.Info("poll expired", "event", "poll_expired", "poll_id", pollID)
			}
			return nil
		})
	}

	err = g.Wait()
	return int(expired.Load()), err
}

func (s *LifecycleScheduler) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", "event", "scheduler_sweep_failed", "expired", n, "error", err.Error())
		return
	}
	if n > 0 {
		s.logger.Info("expiry sweep finished", "event", "scheduler_sweep", "expired", n)
	}
}
