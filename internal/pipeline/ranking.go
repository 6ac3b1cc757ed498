package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// RankedCandidate is one row of a ranking.
type RankedCandidate struct {
	CandidateID    string `json:"candidate_id"`
	Score          int    `json:"score"`
	Position       int    `json:"position"`
	IsTopCandidate bool   `json:"is_top_candidate"`
	// Written is false when the record had already left SCREENED by the time
	// its ranking was written.
	Written bool `json:"written"`
}

// RankResult is the output of one ranking run.
type RankResult struct {
	JobID  string            `json:"job_id"`
	Cohort []RankedCandidate `json:"cohort"`
	Top    []string          `json:"top_candidates"`
	Total  int               `json:"total_candidates"`
	// IsTopCandidate answers for the candidate the run was asked about, if any.
	IsTopCandidate *bool `json:"is_top_candidate,omitempty"`
}

// TopThreshold is the number of top candidates in a cohort of n: five
// percent rounded up, and never less than one.
func TopThreshold(n int) int {
	if n <= 0 {
		return 0
	}
	return max(1, (n+19)/20)
}

// rankCohort orders the cohort by score descending, then earliest
// submission, then id, and assigns positions and the top flag.
func rankCohort(cohort []*models.Candidate) []RankedCandidate {
	sorted := append([]*models.Candidate(nil), cohort...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if sa, sb := score(a), score(b); sa != sb {
			return sa > sb
		}
		if !a.SubmissionDate.Equal(b.SubmissionDate) {
			return a.SubmissionDate.Before(b.SubmissionDate)
		}
		return a.ID < b.ID
	})

	top := TopThreshold(len(sorted))
	out := make([]RankedCandidate, len(sorted))
	for i, c := range sorted {
		out[i] = RankedCandidate{
			CandidateID:    c.ID,
			Score:          score(c),
			Position:       i + 1,
			IsTopCandidate: i < top,
		}
	}
	return out
}

func score(c *models.Candidate) int {
	if c.Screening == nil {
		return 0
	}
	return c.Screening.Score
}

// Rank ranks every SCREENED candidate of a job against each other and moves
// them to RANKED. The cohort is read once; candidates screened after the
// snapshot are picked up by the next run. When candidateID is set the result
// also reports whether that candidate is a top candidate.
func (s *Stages) Rank(ctx context.Context, jobID, candidateID string) (*RankResult, error) {
	if jobID == "" {
		return nil, stageErr(StageRank, KindValidation, candidateID, errors.New("job id is required"))
	}

	cohort, _, err := s.store.ListCandidates(ctx, store.CandidateFilter{
		JobID:  jobID,
		Status: models.StatusScreened,
	})
	if err != nil {
		return nil, stageErr(StageRank, KindExternalCapability, candidateID, fmt.Errorf("load cohort: %w", err))
	}

	result := &RankResult{JobID: jobID, Cohort: rankCohort(cohort), Total: len(cohort)}
	rankedAt := s.now().UTC()

	var writeErrs []error
	for i := range result.Cohort {
		rc := &result.Cohort[i]
		if rc.IsTopCandidate {
			result.Top = append(result.Top, rc.CandidateID)
		}

		ranking := models.Ranking{
			Position:       rc.Position,
			IsTopCandidate: rc.IsTopCandidate,
			CohortSize:     result.Total,
			RankedAt:       rankedAt,
		}
		_, err := s.store.ConditionalUpdate(ctx, rc.CandidateID, models.StatusScreened, func(next *models.Candidate) error {
			r := ranking
			next.Ranking = &r
			next.Status = models.StatusRanked
			return nil
		})
		switch {
		case err == nil:
			rc.Written = true
		case errors.Is(err, store.ErrPreconditionFailed):
			slog.Info("stage skipped",
				"stage", StageRank,
				"candidate_id", rc.CandidateID,
				"job_id", jobID,
				"reason", "lost conditional update",
			)
		default:
			writeErrs = append(writeErrs, fmt.Errorf("%s: %w", rc.CandidateID, err))
		}
	}

	if candidateID != "" {
		top, err := s.isTop(ctx, result, candidateID)
		if err != nil {
			return nil, err
		}
		result.IsTopCandidate = &top
	}

	slog.Info("cohort ranked",
		"stage", StageRank,
		"job_id", jobID,
		"total", result.Total,
		"top", len(result.Top),
	)

	// Partial writes are not retried: a fresh snapshot would no longer hold the
	// candidates already written, and their positions would shift.
	if len(writeErrs) > 0 {
		return result, permanentErr(StageRank, candidateID, errors.Join(writeErrs...))
	}
	return result, nil
}

// isTop looks the candidate up in this run's cohort and falls back to the
// ranking stored by an earlier run.
func (s *Stages) isTop(ctx context.Context, result *RankResult, candidateID string) (bool, error) {
	for _, rc := range result.Cohort {
		if rc.CandidateID == candidateID {
			return rc.IsTopCandidate, nil
		}
	}
	c, err := s.store.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, stageErr(StageRank, KindNotFound, candidateID, err)
		}
		return false, stageErr(StageRank, KindExternalCapability, candidateID, err)
	}
	return c.Ranking != nil && c.Ranking.IsTopCandidate, nil
}
