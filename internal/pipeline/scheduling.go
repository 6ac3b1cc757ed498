package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/recruitflow/internal/notify"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

const candidateInvitation = `Dear %s,

Thank you for your interest in our company and for participating in the phone screening.

We are pleased to invite you to the next stage of our interview process. Your interview has been scheduled for:

Date and Time: %s

The interview will be conducted via video conference. You will receive a calendar invitation with the meeting link shortly.

If you have any questions or need to reschedule, please reply to this email.

We look forward to speaking with you!

Best regards,
Recruiting Team
`

const staffInvitation = `Hello,

An interview has been scheduled with %s for a technical position.

Date and Time: %s

The candidate's resume and phone screening results are available in the recruiting pipeline.

Please let me know if you have any questions or if you need to reschedule.

Best regards,
Recruiting Team
`

// Schedule books the earliest slot shared by the hiring manager and the
// technical staff, invites all three parties and moves the record to
// INTERVIEW_SCHEDULED. If any invitation fails nothing is recorded.
func (s *Stages) Schedule(ctx context.Context, candidateID string) (*models.Candidate, error) {
	c, skip, err := s.load(ctx, StageSchedule, candidateID, models.StatusPhoneInterviewCompleted)
	if err != nil || skip {
		return c, err
	}
	if c.PhoneInterview == nil || c.PhoneInterview.Passed == nil || !*c.PhoneInterview.Passed {
		return nil, stageErr(StageSchedule, KindInvalidState, c.ID, errors.New("candidate did not pass the phone interview"))
	}
	if strings.TrimSpace(c.Email) == "" {
		return nil, stageErr(StageSchedule, KindMissingContactInfo, c.ID, errors.New("candidate has no email address"))
	}

	hm, tech := s.cfg.HiringManagerEmail, s.cfg.TechnicalStaffEmail

	sctx, cancel := s.capabilityContext(ctx)
	slots, err := s.slots.FindSlots(sctx, hm, tech)
	cancel()
	if err != nil {
		return nil, stageErr(StageSchedule, KindExternalCapability, c.ID, fmt.Errorf("find slots: %w", err))
	}
	if len(slots) == 0 {
		return nil, stageErr(StageSchedule, KindExternalCapability, c.ID, errors.New("no open interview slots"))
	}
	slot := slots[0]

	name := c.FullName
	if name == "" {
		name = "Candidate"
	}
	subject := fmt.Sprintf("Interview Invitation: %s - Technical Interview", name)
	invitations := []struct{ to, body string }{
		{c.Email, fmt.Sprintf(candidateInvitation, name, slot.Formatted)},
		{hm, fmt.Sprintf(staffInvitation, name, slot.Formatted)},
		{tech, fmt.Sprintf(staffInvitation, name, slot.Formatted)},
	}

	messageIDs := make([]string, 0, len(invitations))
	for _, inv := range invitations {
		nctx, cancel := s.capabilityContext(ctx)
		id, err := s.notifier.Send(nctx, inv.to, subject, inv.body)
		cancel()
		if err != nil {
			err = fmt.Errorf("notify %s: %w", inv.to, err)
			if errors.Is(err, notify.ErrInvalidRecipient) {
				return nil, permanentErr(StageSchedule, c.ID, err)
			}
			return nil, stageErr(StageSchedule, KindExternalCapability, c.ID, err)
		}
		messageIDs = append(messageIDs, id)
	}

	return s.commit(ctx, StageSchedule, c, func(next *models.Candidate) error {
		next.Interview = &models.Interview{
			Datetime:       slot.Start.UTC(),
			Formatted:      slot.Formatted,
			HiringManager:  hm,
			TechnicalStaff: tech,
			Status:         models.InterviewStatusScheduled,
			MessageIDs:     messageIDs,
		}
		next.Status = models.StatusInterviewScheduled
		return nil
	})
}
