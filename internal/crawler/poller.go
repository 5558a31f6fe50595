package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitebotics/sitebot/internal/models"
)

// JobRunner runs one claimed crawl job to completion.
type JobRunner interface {
	RunJob(ctx context.Context, source *models.Source) error
}

// Poller claims queued sources and hands them to the runner. One claim
// at a time per poller; concurrency comes from running more workers,
// which the atomic claim keeps safe.
type Poller struct {
	store  Store
	runner JobRunner
	logger *slog.Logger

	interval   time.Duration
	staleAfter time.Duration
}

// NewPoller creates a poller. staleAfter bounds how long a claimed
// source may sit in the crawling state before it is requeued; zero
// disables the sweep.
func NewPoller(store Store, runner JobRunner, interval, staleAfter time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:      store,
		runner:     runner,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Run polls until ctx is cancelled. A completed job triggers an
// immediate re-poll so a backlog drains without the interval delay.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("worker started", "poll_interval", p.interval)

	for {
		didWork, err := p.runOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("poll iteration failed", "error", err)
		}
		if didWork {
			continue
		}

		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// runOnce sweeps stale claims, then claims and runs at most one job.
// Returns whether a job ran; job failures are already recorded on the
// source and are not iteration errors.
func (p *Poller) runOnce(ctx context.Context) (bool, error) {
	if p.staleAfter > 0 {
		requeued, err := p.store.QueryRequeueStaleSources(ctx, p.staleAfter)
		if err != nil {
			return false, fmt.Errorf("requeue stale sources: %w", err)
		}
		if requeued > 0 {
			p.logger.Warn("requeued stale crawl jobs", "count", requeued)
		}
	}

	source, err := p.store.QueryClaimNextQueuedSource(ctx)
	if err != nil {
		return false, fmt.Errorf("claim source: %w", err)
	}
	if source == nil {
		return false, nil
	}

	_ = p.runner.RunJob(ctx, source)
	return true, nil
}
