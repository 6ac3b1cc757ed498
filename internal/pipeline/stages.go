// Package pipeline drives candidates through the recruiting stages. Each
// stage reads the candidate store, calls one capability and writes the
// result back with a conditional update keyed on the status it observed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	"github.com/kiranshivaraju/recruitflow/internal/calendar"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/extract"
	"github.com/kiranshivaraju/recruitflow/internal/notify"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// ResumeEvaluator scores a resume against a job description.
type ResumeEvaluator interface {
	Evaluate(ctx context.Context, jobDescription, resumeText string) (ai.Evaluation, bool, error)
}

// ScriptGenerator writes phone interview scripts.
type ScriptGenerator interface {
	Generate(ctx context.Context, req ai.ScriptRequest) (string, error)
}

// JobCatalog resolves job descriptions. Unknown ids resolve to a generic
// description.
type JobCatalog interface {
	GetDescription(ctx context.Context, jobID string) string
}

var (
	_ ResumeEvaluator = (*ai.Evaluator)(nil)
	_ ScriptGenerator = (*ai.ScriptWriter)(nil)
)

// Deps wires the store and capability adapters into the stages.
type Deps struct {
	Store     store.Store
	Extractor extract.Extractor
	Catalog   JobCatalog
	Evaluator ResumeEvaluator
	Scripts   ScriptGenerator
	Dialer    telephony.Dialer
	Slots     calendar.SlotFinder
	Notifier  notify.Notifier
}

// Stages holds one executor per pipeline step.
type Stages struct {
	store     store.Store
	extractor extract.Extractor
	catalog   JobCatalog
	evaluator ResumeEvaluator
	scripts   ScriptGenerator
	dialer    telephony.Dialer
	slots     calendar.SlotFinder
	notifier  notify.Notifier
	cfg       config.PipelineConfig
	now       func() time.Time
}

func NewStages(deps Deps, cfg config.PipelineConfig) *Stages {
	return &Stages{
		store:     deps.Store,
		extractor: deps.Extractor,
		catalog:   deps.Catalog,
		evaluator: deps.Evaluator,
		scripts:   deps.Scripts,
		dialer:    deps.Dialer,
		slots:     deps.Slots,
		notifier:  deps.Notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// capabilityContext bounds one external call.
func (s *Stages) capabilityContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CapabilityTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CapabilityTimeout)
}

// load fetches the candidate and decides whether the stage applies. It
// returns skip=true when the record has already moved past want, and an
// InvalidState error when it has not reached want yet.
func (s *Stages) load(ctx context.Context, stage Stage, candidateID string, want models.Status) (*models.Candidate, bool, error) {
	if candidateID == "" {
		return nil, false, stageErr(stage, KindValidation, candidateID, errors.New("candidate id is required"))
	}
	c, err := s.store.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, stageErr(stage, KindNotFound, candidateID, err)
		}
		return nil, false, stageErr(stage, KindExternalCapability, candidateID, err)
	}
	if c.Status == want {
		return c, false, nil
	}
	if c.Status.ReachedOrPassed(want) {
		logSkipped(stage, c, "status already advanced")
		return c, true, nil
	}
	return c, false, stageErr(stage, KindInvalidState, candidateID,
		fmt.Errorf("status is %s, stage requires %s", c.Status, want))
}

// commit writes a stage result. Losing the status guard to a concurrent run
// is not an error: the current record is returned unchanged.
func (s *Stages) commit(ctx context.Context, stage Stage, c *models.Candidate, mutate store.Mutation) (*models.Candidate, error) {
	updated, err := s.store.ConditionalUpdate(ctx, c.ID, c.Status, mutate)
	switch {
	case err == nil:
		slog.Info("stage completed",
			"stage", stage,
			"candidate_id", updated.ID,
			"job_id", updated.JobID,
			"status", updated.Status,
		)
		return updated, nil
	case errors.Is(err, store.ErrPreconditionFailed):
		current, getErr := s.store.Get(ctx, c.ID)
		if getErr != nil {
			return nil, stageErr(stage, KindExternalCapability, c.ID, getErr)
		}
		logSkipped(stage, current, "lost conditional update")
		return current, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, stageErr(stage, KindNotFound, c.ID, err)
	case errors.Is(err, store.ErrInvalidTransition):
		return nil, stageErr(stage, KindInvalidState, c.ID, err)
	default:
		return nil, stageErr(stage, KindExternalCapability, c.ID, err)
	}
}

func logSkipped(stage Stage, c *models.Candidate, reason string) {
	slog.Info("stage skipped",
		"stage", stage,
		"candidate_id", c.ID,
		"job_id", c.JobID,
		"status", c.Status,
		"reason", reason,
	)
}

// aiErr classifies an inference failure. Provider outages and timeouts are
// worth retrying; anything else the provider rejected will be rejected again.
func aiErr(stage Stage, candidateID string, err error) *StageError {
	if errors.Is(err, ai.ErrProviderUnavailable) ||
		errors.Is(err, ai.ErrInferenceTimeout) ||
		errors.Is(err, ai.ErrInvalidResponse) ||
		errors.Is(err, context.DeadlineExceeded) {
		return stageErr(stage, KindExternalCapability, candidateID, err)
	}
	return permanentErr(stage, candidateID, err)
}
