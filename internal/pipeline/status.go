package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// StatusCache caches status views between polls.
type StatusCache interface {
	StatusPublisher
	GetStatus(ctx context.Context, candidateID string) (*models.StatusView, bool, error)
	SetStatus(ctx context.Context, view models.StatusView, ttl time.Duration) error
}

// StatusService answers status polls. It never writes to the store.
type StatusService struct {
	store store.Store
	cache StatusCache
	ttl   time.Duration
}

// NewStatusService creates a status service. cache may be nil.
func NewStatusService(st store.Store, cache StatusCache, ttl time.Duration) *StatusService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatusService{store: st, cache: cache, ttl: ttl}
}

// GetStatus returns the candidate's status view. Cache failures fall through
// to the store.
func (s *StatusService) GetStatus(ctx context.Context, candidateID string) (*models.StatusView, error) {
	if candidateID == "" {
		return nil, stageErr(StageIntake, KindValidation, candidateID, errors.New("candidate id is required"))
	}

	if s.cache != nil {
		view, ok, err := s.cache.GetStatus(ctx, candidateID)
		if err != nil {
			slog.Warn("status cache read failed", "candidate_id", candidateID, "error", err)
		} else if ok {
			return view, nil
		}
	}

	c, err := s.store.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, stageErr(StageIntake, KindNotFound, candidateID, err)
		}
		return nil, err
	}

	// The orchestrator may have published a newer view since the read above;
	// the cache keeps whichever view is newer.
	view := c.View()
	if s.cache != nil {
		if err := s.cache.SetStatus(ctx, view, s.ttl); err != nil {
			slog.Warn("status cache write failed", "candidate_id", candidateID, "error", err)
		}
	}
	return &view, nil
}
