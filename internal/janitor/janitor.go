// Package janitor periodically removes partial uploads abandoned by crashed
// or interrupted writes.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/filevault/internal/content"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const jobName = "sweep-partial-uploads"

// Janitor runs the sweep on a fixed interval.
type Janitor struct {
	sweeper    content.PartialSweeper
	interval   time.Duration
	staleAfter time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// New builds a janitor. A non-positive interval disables Run.
func New(sweeper content.PartialSweeper, interval, staleAfter time.Duration, log *zap.Logger) *Janitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{
		sweeper:    sweeper,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
	}
}

// Sweep removes partial writes older than the stale threshold.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	removed, err := j.sweeper.SweepPartials(ctx, j.now().Add(-j.staleAfter))
	if err != nil {
		return removed, fmt.Errorf("sweep partial uploads: %w", err)
	}
	return removed, nil
}

// Run schedules Sweep until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 {
		j.log.Info("janitor disabled")
		return nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			removed, err := j.Sweep(ctx)
			if err != nil {
				j.log.Error("janitor sweep failed", zap.Error(err))
				return
			}
			if removed > 0 {
				j.log.Info("janitor removed partial uploads", zap.Int("removed", removed))
			}
		}),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule %s: %w", jobName, err)
	}

	j.log.Info("janitor started", zap.Duration("interval", j.interval), zap.Duration("stale_after", j.staleAfter))
	s.Start()

	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}
