package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/docstore"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Submission is the intake handoff: a validated application whose resume has
// already been stored under ResumeKey.
type Submission struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
	ResumeKey   string `json:"resume_key"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (s Submission) validate() error {
	var missing []string
	if strings.TrimSpace(s.JobID) == "" {
		missing = append(missing, "job_id")
	}
	if strings.TrimSpace(s.ResumeKey) == "" {
		missing = append(missing, "resume_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// StatusPublisher holds cached status views. SetStatus must never replace a
// cached view whose UpdatedDate is newer than the one being written.
type StatusPublisher interface {
	SetStatus(ctx context.Context, view models.StatusView, ttl time.Duration) error
	InvalidateStatus(ctx context.Context, candidateID string) error
}

type Option func(*Orchestrator)

// WithStatusCache writes the fresh status view to pub whenever a record
// changes, so a poll that read the record before the change cannot put the
// old view back.
func WithStatusCache(pub StatusPublisher, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cache = pub
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithBackground controls whether Submit and RankJob advance candidates in
// background goroutines. It is on by default.
func WithBackground(enabled bool) Option {
	return func(o *Orchestrator) { o.background = enabled }
}

// Orchestrator sequences stages per candidate, retries external failures and
// records candidates that cannot continue as FAILED.
type Orchestrator struct {
	stages     *Stages
	store      store.Store
	cache      StatusPublisher
	cacheTTL   time.Duration
	cfg        config.PipelineConfig
	background bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(stages *Stages, cfg config.PipelineConfig, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		stages:     stages,
		store:      stages.store,
		cfg:        cfg,
		background: true,
		cacheTTL:   30 * time.Second,
		baseCtx:    ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit records a new SUBMITTED candidate and starts it down the pipeline.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (*models.Candidate, error) {
	if err := sub.validate(); err != nil {
		return nil, stageErr(StageIntake, KindValidation, sub.CandidateID, err)
	}
	if sub.CandidateID == "" {
		sub.CandidateID = uuid.NewString()
	}

	now := o.stages.now().UTC().Truncate(time.Microsecond)
	c := &models.Candidate{
		ID:             sub.CandidateID,
		JobID:          sub.JobID,
		FullName:       strings.TrimSpace(sub.FullName),
		Email:          strings.TrimSpace(sub.Email),
		Phone:          strings.TrimSpace(sub.Phone),
		ResumeKey:      sub.ResumeKey,
		Status:         models.StatusSubmitted,
		SubmissionDate: now,
		UpdatedDate:    now,
	}
	if err := o.store.Put(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, stageErr(StageIntake, KindValidation, c.ID, fmt.Errorf("candidate already exists: %w", err))
		}
		return nil, stageErr(StageIntake, KindExternalCapability, c.ID, err)
	}

	slog.Info("candidate submitted",
		"stage", StageIntake,
		"candidate_id", c.ID,
		"job_id", c.JobID,
		"status", c.Status,
	)
	o.spawn(c.ID)
	return c, nil
}

// HandleDocumentEvent reacts to a resume arriving in the document store. The
// candidate is derived from the key; a record is created when intake has not
// already done so. Extraction then runs in the caller's context. An event for
// an existing candidate must name the resume stored on its record.
func (o *Orchestrator) HandleDocumentEvent(ctx context.Context, key string) (*models.Candidate, error) {
	if strings.TrimSpace(key) == "" {
		return nil, stageErr(StageExtract, KindValidation, "", errors.New("document key is required"))
	}
	ref := docstore.ParseKey(key)

	c, err := o.store.Get(ctx, ref.CandidateID)
	switch {
	case err == nil && c.ResumeKey != key:
		slog.Warn("document event does not match candidate resume",
			"candidate_id", ref.CandidateID,
			"event_key", key,
			"resume_key", c.ResumeKey,
		)
		return nil, stageErr(StageExtract, KindValidation, ref.CandidateID,
			fmt.Errorf("document key %q does not match the candidate's resume key %q", key, c.ResumeKey))
	case errors.Is(err, store.ErrNotFound):
		if _, err := o.Submit(ctx, Submission{CandidateID: ref.CandidateID, JobID: ref.JobID, ResumeKey: key}); err != nil {
			return nil, err
		}
		if o.background {
			// Submit already started the candidate.
			return o.store.Get(ctx, ref.CandidateID)
		}
	case err != nil:
		return nil, stageErr(StageExtract, KindExternalCapability, ref.CandidateID, err)
	}
	return o.RunStage(ctx, ref.CandidateID, StageExtract)
}

// RunStage runs a single candidate stage with retries. The rank stage ranks
// the candidate's whole cohort.
func (o *Orchestrator) RunStage(ctx context.Context, candidateID string, stage Stage) (*models.Candidate, error) {
	switch stage {
	case StageExtract:
		return o.run(ctx, stage, candidateID, models.StatusSubmitted, o.stages.Extract)
	case StageScreen:
		return o.run(ctx, stage, candidateID, models.StatusExtracted, o.stages.Screen)
	case StagePhone:
		return o.run(ctx, stage, candidateID, models.StatusRanked, o.stages.InitiatePhoneInterview)
	case StageSchedule:
		return o.run(ctx, stage, candidateID, models.StatusPhoneInterviewCompleted, o.stages.Schedule)
	case StageRank:
		c, err := o.store.Get(ctx, candidateID)
		if err != nil {
			return nil, o.getErr(stage, candidateID, err)
		}
		if _, err := o.RankJob(ctx, c.JobID, candidateID); err != nil {
			return nil, err
		}
		return o.store.Get(ctx, candidateID)
	default:
		return nil, stageErr(stage, KindValidation, candidateID, fmt.Errorf("unknown stage %q", stage))
	}
}

// Advance runs the candidate forward until it reaches a status that waits on
// an external event (a phone call result, or a ranking that did not place it
// among the top candidates) or a terminal status.
func (o *Orchestrator) Advance(ctx context.Context, candidateID string) (*models.Candidate, error) {
	c, err := o.store.Get(ctx, candidateID)
	if err != nil {
		return nil, o.getErr(StageIntake, candidateID, err)
	}

	for {
		var stage Stage
		switch c.Status {
		case models.StatusSubmitted:
			stage = StageExtract
		case models.StatusExtracted:
			stage = StageScreen
		case models.StatusScreened:
			stage = StageRank
		case models.StatusRanked:
			if c.Ranking == nil || !c.Ranking.IsTopCandidate {
				return c, nil
			}
			stage = StagePhone
		default:
			return c, nil
		}

		next, err := o.RunStage(ctx, candidateID, stage)
		if err != nil {
			return nil, err
		}
		if next.Status == c.Status {
			return next, nil
		}
		c = next
	}
}

// RankJob ranks a job's SCREENED cohort. Top candidates other than
// candidateID, which the caller advances itself, are started on their phone
// interviews in the background.
func (o *Orchestrator) RankJob(ctx context.Context, jobID, candidateID string) (*RankResult, error) {
	res, err := retry(ctx, o.retryPolicy(ctx), StageRank, candidateID, func() (*RankResult, error) {
		return o.stages.Rank(ctx, jobID, candidateID)
	})
	if res != nil {
		for _, rc := range res.Cohort {
			if rc.Written {
				o.refresh(ctx, rc.CandidateID)
				if rc.IsTopCandidate && rc.CandidateID != candidateID {
					o.spawn(rc.CandidateID)
				}
			}
		}
	}
	return res, err
}

// ProcessPhoneResults records a finished call. A passed interview goes on to
// scheduling; a failed one rejects the candidate.
func (o *Orchestrator) ProcessPhoneResults(ctx context.Context, candidateID string, results telephony.Results) (*models.Candidate, error) {
	c, err := o.run(ctx, StagePhone, candidateID, models.StatusPhoneInterviewInitiated,
		func(ctx context.Context, id string) (*models.Candidate, error) {
			return o.stages.ProcessPhoneResults(ctx, id, results)
		})
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusPhoneInterviewCompleted {
		return c, nil
	}

	if c.PhoneInterview != nil && c.PhoneInterview.Passed != nil && *c.PhoneInterview.Passed {
		return o.RunStage(ctx, candidateID, StageSchedule)
	}
	reason := "phone interview not passed"
	if c.PhoneInterview != nil && c.PhoneInterview.Notes != "" {
		reason = c.PhoneInterview.Notes
	}
	return o.transitionOut(ctx, candidateID, StagePhone, models.StatusRejected, reason)
}

// Reject moves a candidate out of the pipeline on an operator's decision.
func (o *Orchestrator) Reject(ctx context.Context, candidateID, reason string) (*models.Candidate, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "rejected by operator"
	}
	return o.transitionOut(ctx, candidateID, StageOperator, models.StatusRejected, reason)
}

// transitionOut moves the record to a terminal side branch from whatever
// non-terminal status it is in, re-reading when a concurrent write wins.
func (o *Orchestrator) transitionOut(ctx context.Context, candidateID string, stage Stage, to models.Status, reason string) (*models.Candidate, error) {
	for attempt := 0; attempt < 3; attempt++ {
		c, err := o.store.Get(ctx, candidateID)
		if err != nil {
			return nil, o.getErr(stage, candidateID, err)
		}
		if c.Status.IsTerminal() {
			return nil, stageErr(stage, KindInvalidState, candidateID, fmt.Errorf("candidate is already %s", c.Status))
		}

		at := o.stages.now().UTC()
		updated, err := o.store.ConditionalUpdate(ctx, candidateID, c.Status, func(next *models.Candidate) error {
			next.Status = to
			next.Failure = &models.Failure{Stage: string(stage), Reason: reason, At: at}
			return nil
		})
		if errors.Is(err, store.ErrPreconditionFailed) {
			continue
		}
		if err != nil {
			return nil, stageErr(stage, KindExternalCapability, candidateID, err)
		}
		o.publish(ctx, updated)
		slog.Info("candidate left pipeline",
			"stage", stage,
			"candidate_id", candidateID,
			"job_id", updated.JobID,
			"status", updated.Status,
			"reason", reason,
		)
		return updated, nil
	}
	return nil, stageErr(stage, KindExternalCapability, candidateID, errors.New("record kept changing, giving up"))
}

// run executes one candidate stage under the retry policy. A failure that
// retries cannot fix moves the record to FAILED, but only if it is still at
// the status the stage expects.
func (o *Orchestrator) run(ctx context.Context, stage Stage, candidateID string, from models.Status,
	fn func(context.Context, string) (*models.Candidate, error)) (*models.Candidate, error) {
	c, err := retry(ctx, o.retryPolicy(ctx), stage, candidateID, func() (*models.Candidate, error) {
		return fn(ctx, candidateID)
	})
	if err == nil {
		o.publish(ctx, c)
		return c, nil
	}

	var se *StageError
	if !errors.As(err, &se) || se.Kind == KindValidation || se.Kind == KindNotFound || ctx.Err() != nil {
		return nil, err
	}

	slog.Error("stage failed",
		"stage", stage,
		"candidate_id", candidateID,
		"kind", se.Kind,
		"error", se.Err,
	)
	o.markFailed(ctx, stage, candidateID, from, err)
	return nil, err
}

func (o *Orchestrator) markFailed(ctx context.Context, stage Stage, candidateID string, from models.Status, cause error) {
	at := o.stages.now().UTC()
	updated, err := o.store.ConditionalUpdate(ctx, candidateID, from, func(next *models.Candidate) error {
		next.Status = models.StatusFailed
		next.Failure = &models.Failure{Stage: string(stage), Reason: cause.Error(), At: at}
		return nil
	})
	switch {
	case err == nil:
		o.publish(ctx, updated)
	case errors.Is(err, store.ErrPreconditionFailed):
		// The record is not at this stage; nothing to fail.
	default:
		slog.Error("failed to record stage failure",
			"stage", stage,
			"candidate_id", candidateID,
			"error", err,
		)
	}
}

func (o *Orchestrator) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if o.cfg.RetryInitialInterval > 0 {
		eb.InitialInterval = o.cfg.RetryInitialInterval
	}
	attempts := o.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// retry re-runs op while it fails with a retryable StageError.
func retry[T any](ctx context.Context, policy backoff.BackOff, stage Stage, candidateID string, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		res, err := op()
		if err != nil && !IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, policy, func(err error, wait time.Duration) {
		slog.Warn("stage attempt failed, retrying",
			"stage", stage,
			"candidate_id", candidateID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	})
}

func (o *Orchestrator) getErr(stage Stage, candidateID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return stageErr(stage, KindNotFound, candidateID, err)
	}
	return stageErr(stage, KindExternalCapability, candidateID, err)
}

// publish writes c's view to the status cache. When the write fails the
// entry is dropped instead, so a poll never serves a view older than c.
func (o *Orchestrator) publish(ctx context.Context, c *models.Candidate) {
	if o.cache == nil || c == nil {
		return
	}
	err := o.cache.SetStatus(ctx, c.View(), o.cacheTTL)
	if err == nil {
		return
	}
	slog.Warn("status cache refresh failed", "candidate_id", c.ID, "error", err)
	if err := o.cache.InvalidateStatus(ctx, c.ID); err != nil {
		slog.Warn("status cache invalidation failed", "candidate_id", c.ID, "error", err)
	}
}

// refresh re-reads a record written elsewhere and publishes it.
func (o *Orchestrator) refresh(ctx context.Context, candidateID string) {
	if o.cache == nil {
		return
	}
	c, err := o.store.Get(ctx, candidateID)
	if err != nil {
		if err := o.cache.InvalidateStatus(ctx, candidateID); err != nil {
			slog.Warn("status cache invalidation failed", "candidate_id", candidateID, "error", err)
		}
		return
	}
	o.publish(ctx, c)
}

// spawn advances a candidate in the background.
func (o *Orchestrator) spawn(candidateID string) {
	if !o.background {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.Advance(o.baseCtx, candidateID); err != nil {
			slog.Warn("background advance stopped", "candidate_id", candidateID, "error", err)
		}
	}()
}

// Wait blocks until all background work has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels background work and waits for it, up to ctx's deadline.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
