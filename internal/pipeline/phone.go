package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// InitiatePhoneInterview generates an interview script, places the call and
// moves the record from RANKED to PHONE_INTERVIEW_INITIATED. The call outcome
// arrives later through ProcessPhoneResults.
func (s *Stages) InitiatePhoneInterview(ctx context.Context, candidateID string) (*models.Candidate, error) {
	c, skip, err := s.load(ctx, StagePhone, candidateID, models.StatusRanked)
	if err != nil || skip {
		return c, err
	}
	if strings.TrimSpace(c.Phone) == "" {
		return nil, stageErr(StagePhone, KindMissingContactInfo, c.ID, errors.New("candidate has no phone number"))
	}

	req := ai.ScriptRequest{
		CandidateName:  c.FullName,
		JobDescription: s.catalog.GetDescription(ctx, c.JobID),
	}
	if c.Screening != nil {
		req.MatchingSkills = c.Screening.MatchingSkills
		req.MissingSkills = c.Screening.MissingSkills
	}

	sctx, cancel := s.capabilityContext(ctx)
	script, err := s.scripts.Generate(sctx, req)
	cancel()
	if err != nil {
		return nil, aiErr(StagePhone, c.ID, err)
	}

	dctx, cancel := s.capabilityContext(ctx)
	contactID, err := s.dialer.StartCall(dctx, telephony.Call{
		PhoneNumber: c.Phone,
		Script:      script,
		CandidateID: c.ID,
	})
	cancel()
	if err != nil {
		if errors.Is(err, telephony.ErrCallRejected) {
			return nil, permanentErr(StagePhone, c.ID, err)
		}
		return nil, stageErr(StagePhone, KindExternalCapability, c.ID, err)
	}

	initiatedAt := s.now().UTC()
	return s.commit(ctx, StagePhone, c, func(next *models.Candidate) error {
		next.PhoneInterview = &models.PhoneInterview{
			ContactID:   contactID,
			Script:      script,
			InitiatedAt: initiatedAt,
		}
		next.Status = models.StatusPhoneInterviewInitiated
		return nil
	})
}

// ProcessPhoneResults records the outcome of a finished call and moves the
// record from PHONE_INTERVIEW_INITIATED to PHONE_INTERVIEW_COMPLETED.
func (s *Stages) ProcessPhoneResults(ctx context.Context, candidateID string, results telephony.Results) (*models.Candidate, error) {
	c, skip, err := s.load(ctx, StagePhone, candidateID, models.StatusPhoneInterviewInitiated)
	if err != nil || skip {
		return c, err
	}
	if c.PhoneInterview == nil {
		return nil, stageErr(StagePhone, KindInvalidState, c.ID, errors.New("no phone interview was initiated"))
	}
	if results.ContactID != "" && results.ContactID != c.PhoneInterview.ContactID {
		return nil, stageErr(StagePhone, KindValidation, c.ID,
			fmt.Errorf("contact %s does not belong to this candidate", results.ContactID))
	}

	passed, notes := results.Outcome()
	completedAt := s.now().UTC()
	return s.commit(ctx, StagePhone, c, func(next *models.Candidate) error {
		next.PhoneInterview.Passed = &passed
		next.PhoneInterview.Notes = notes
		next.PhoneInterview.CompletedAt = &completedAt
		next.Status = models.StatusPhoneInterviewCompleted
		return nil
	})
}
