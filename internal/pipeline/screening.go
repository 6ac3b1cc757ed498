package pipeline

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Screen evaluates the extracted resume against the job description and moves
// the record from EXTRACTED to SCREENED. An unparseable evaluation does not
// fail the stage; the conservative fallback is recorded instead.
func (s *Stages) Screen(ctx context.Context, candidateID string) (*models.Candidate, error) {
	c, skip, err := s.load(ctx, StageScreen, candidateID, models.StatusExtracted)
	if err != nil || skip {
		return c, err
	}
	if !c.HasResumeText() {
		return nil, stageErr(StageScreen, KindInvalidState, c.ID, errors.New("resume text is empty"))
	}

	description := s.catalog.GetDescription(ctx, c.JobID)

	cctx, cancel := s.capabilityContext(ctx)
	defer cancel()

	eval, fallback, err := s.evaluator.Evaluate(cctx, description, *c.ResumeText)
	if err != nil {
		return nil, aiErr(StageScreen, c.ID, err)
	}

	return s.commit(ctx, StageScreen, c, func(next *models.Candidate) error {
		next.Screening = &models.Screening{
			Score:          eval.Score,
			Assessment:     eval.Assessment,
			MatchingSkills: eval.MatchingSkills,
			MissingSkills:  eval.MissingSkills,
			Recommendation: eval.Recommendation,
			Fallback:       fallback,
		}
		next.Status = models.StatusScreened
		return nil
	})
}
