package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Sweeper periodically re-ranks every job that still has SCREENED
// candidates, so candidates screened after a ranking snapshot are not left
// waiting.
type Sweeper struct {
	orch *Orchestrator
	cron *cron.Cron
}

// NewSweeper schedules Sweep on a standard cron spec or descriptor such as
// "@every 15m".
func NewSweeper(orch *Orchestrator, spec string, loc *time.Location) (*Sweeper, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Sweeper{
		orch: orch,
		cron: cron.New(cron.WithLocation(loc)),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(orch.baseCtx) }); err != nil {
		return nil, fmt.Errorf("invalid re-rank schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop stops the schedule and waits for a running sweep, up to ctx's deadline.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep ranks each job with SCREENED candidates once and returns how many
// jobs were ranked successfully.
func (s *Sweeper) Sweep(ctx context.Context) int {
	jobs, err := s.orch.store.JobsWithStatus(ctx, models.StatusScreened)
	if err != nil {
		slog.Error("re-rank sweep failed", "error", err)
		return 0
	}

	ranked := 0
	for _, jobID := range jobs {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.orch.RankJob(ctx, jobID, ""); err != nil {
			slog.Error("re-rank failed", "job_id", jobID, "error", err)
			continue
		}
		ranked++
	}
	if len(jobs) > 0 {
		slog.Info("re-rank sweep finished", "jobs", len(jobs), "ranked", ranked)
	}
	return ranked
}
