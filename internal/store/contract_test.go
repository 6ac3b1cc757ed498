package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCandidate(id, jobID string, submitted time.Time) *models.Candidate {
	return &models.Candidate{
		ID:             id,
		JobID:          jobID,
		FullName:       "Ada Lovelace",
		Email:          id + "@example.com",
		Phone:          "+15550100",
		ResumeKey:      "resumes/" + jobID + "/" + id + ".pdf",
		Status:         models.StatusSubmitted,
		SubmissionDate: submitted.UTC().Truncate(time.Microsecond),
		UpdatedDate:    submitted.UTC().Truncate(time.Microsecond),
	}
}

func toStatus(status models.Status) store.Mutation {
	return func(c *models.Candidate) error {
		c.Status = status
		return nil
	}
}

// runStoreContract exercises the behavior every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("PutAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c := newCandidate("cand-1", "job-1", time.Now())

		require.NoError(t, s.Put(ctx, c))

		got, err := s.Get(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, "job-1", got.JobID)
		assert.Equal(t, models.StatusSubmitted, got.Status)
		assert.Nil(t, got.Screening)
		assert.Nil(t, got.ResumeText)
		assert.True(t, c.SubmissionDate.Equal(got.SubmissionDate))
	})

	t.Run("PutDuplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c := newCandidate("cand-1", "job-1", time.Now())

		require.NoError(t, s.Put(ctx, c))
		err := s.Put(ctx, c)
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ConditionalUpdateAdvances", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c := newCandidate("cand-1", "job-1", time.Now())
		require.NoError(t, s.Put(ctx, c))

		updated, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, func(c *models.Candidate) error {
			text := "Go, Kubernetes, Postgres"
			c.ResumeText = &text
			c.Status = models.StatusExtracted
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusExtracted, updated.Status)
		assert.True(t, updated.UpdatedDate.After(c.UpdatedDate))

		got, err := s.Get(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusExtracted, got.Status)
		require.NotNil(t, got.ResumeText)
		assert.Equal(t, "Go, Kubernetes, Postgres", *got.ResumeText)
	})

	t.Run("ConditionalUpdateStaleStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, newCandidate("cand-1", "job-1", time.Now())))

		_, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusExtracted, toStatus(models.StatusScreened))
		assert.ErrorIs(t, err, store.ErrPreconditionFailed)

		got, err := s.Get(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, got.Status)
	})

	t.Run("ConditionalUpdateNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.ConditionalUpdate(context.Background(), "missing", models.StatusSubmitted, toStatus(models.StatusExtracted))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ConditionalUpdateRejectsSkippedStage", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, newCandidate("cand-1", "job-1", time.Now())))

		_, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, toStatus(models.StatusRanked))
		assert.ErrorIs(t, err, store.ErrInvalidTransition)
	})

	t.Run("ConditionalUpdateMutationError", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, newCandidate("cand-1", "job-1", time.Now())))

		boom := errors.New("boom")
		_, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, func(c *models.Candidate) error {
			c.Status = models.StatusExtracted
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "cand-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, got.Status)
	})

	t.Run("ConditionalUpdateKeepsIdentity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c := newCandidate("cand-1", "job-1", time.Now())
		require.NoError(t, s.Put(ctx, c))

		updated, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, func(c *models.Candidate) error {
			c.JobID = "job-2"
			c.SubmissionDate = time.Time{}
			c.Status = models.StatusExtracted
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "job-1", updated.JobID)
		assert.True(t, c.SubmissionDate.Equal(updated.SubmissionDate))
	})

	t.Run("UpdatedDateStrictlyIncreases", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		// A submission stamped in the future forces the store to bump rather
		// than use the wall clock.
		c := newCandidate("cand-1", "job-1", time.Now().Add(time.Hour))
		require.NoError(t, s.Put(ctx, c))

		prev := c.UpdatedDate
		for _, step := range []models.Status{models.StatusExtracted, models.StatusScreened, models.StatusRanked} {
			from := models.StatusSubmitted
			switch step {
			case models.StatusScreened:
				from = models.StatusExtracted
			case models.StatusRanked:
				from = models.StatusScreened
			}
			updated, err := s.ConditionalUpdate(ctx, "cand-1", from, toStatus(step))
			require.NoError(t, err)
			assert.True(t, updated.UpdatedDate.After(prev), "updatedDate must increase at %s", step)
			prev = updated.UpdatedDate
		}
	})

	t.Run("ConcurrentConditionalUpdateExactlyOneWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, newCandidate("cand-1", "job-1", time.Now())))

		const writers = 8
		var wg sync.WaitGroup
		results := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, toStatus(models.StatusExtracted))
			}(i)
		}
		wg.Wait()

		var wins, stale int
		for _, err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrPreconditionFailed):
				stale++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, stale)
	})

	t.Run("ListCandidatesByJobAndStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Now().Add(-time.Hour)

		for i := 0; i < 5; i++ {
			c := newCandidate(fmt.Sprintf("x-%d", i), "job-x", base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, s.Put(ctx, c))
		}
		require.NoError(t, s.Put(ctx, newCandidate("y-0", "job-y", base)))
		_, err := s.ConditionalUpdate(ctx, "x-4", models.StatusSubmitted, toStatus(models.StatusExtracted))
		require.NoError(t, err)

		got, total, err := s.ListCandidates(ctx, store.CandidateFilter{JobID: "job-x", Status: models.StatusSubmitted})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, got, 4)
		for i, c := range got {
			assert.Equal(t, fmt.Sprintf("x-%d", i), c.ID, "ordered by submission date")
		}

		page, total, err := s.ListCandidates(ctx, store.CandidateFilter{JobID: "job-x", Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, "x-2", page[0].ID)
	})

	t.Run("JobsWithStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, newCandidate("a", "job-b", time.Now())))
		require.NoError(t, s.Put(ctx, newCandidate("b", "job-a", time.Now())))
		require.NoError(t, s.Put(ctx, newCandidate("c", "job-a", time.Now())))
		require.NoError(t, s.Put(ctx, newCandidate("d", "job-c", time.Now())))
		_, err := s.ConditionalUpdate(ctx, "d", models.StatusSubmitted, toStatus(models.StatusExtracted))
		require.NoError(t, err)

		jobs, err := s.JobsWithStatus(ctx, models.StatusSubmitted)
		require.NoError(t, err)
		assert.Equal(t, []string{"job-a", "job-b"}, jobs)
	})

	t.Run("APIKeyCreateAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Microsecond)
		key := &models.APIKey{
			ID:        uuid.New(),
			Name:      "intake-service",
			KeyHash:   "bcrypt-hash-here",
			KeyPrefix: "rf_abcde",
			Scopes:    []string{models.ScopeIntake, models.ScopeRead},
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, s.CreateAPIKey(ctx, key))

		keys, err := s.GetAPIKeyByPrefix(ctx, "rf_abcde")
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, key.ID, keys[0].ID)
		assert.Equal(t, []string{"intake", "read"}, keys[0].Scopes)
		assert.Nil(t, keys[0].LastUsedAt)

		require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))
		keys, err = s.GetAPIKeyByPrefix(ctx, "rf_abcde")
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.NotNil(t, keys[0].LastUsedAt)

		err = s.CreateAPIKey(ctx, key)
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	})
}
