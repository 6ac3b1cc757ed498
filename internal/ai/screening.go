package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

const screeningPrompt = `You are an expert HR recruiter with deep experience in technical recruitment.

JOB DESCRIPTION:
%s

CANDIDATE RESUME:
%s

Please evaluate this resume against the job description and provide:

1. A score from 0 to 100 representing how well the candidate matches the job requirements
2. A brief assessment (maximum 300 words) highlighting strengths and weaknesses
3. Key skills that match the job requirements
4. Key skills that are missing for the job
5. A recommendation (PROCEED or REJECT) on whether to move this candidate to the phone interview stage

Format your response as a JSON object with the following structure:
{
    "score": <number>,
    "assessment": "<text>",
    "matching_skills": ["<skill1>", "<skill2>", ...],
    "missing_skills": ["<skill1>", "<skill2>", ...],
    "recommendation": "<PROCEED or REJECT>"
}`

// Evaluator scores resumes against job descriptions.
type Evaluator struct {
	provider models.AIProvider
	timeout  time.Duration
}

// NewEvaluator creates an Evaluator. timeout bounds each provider call; zero
// leaves the caller's deadline in charge.
func NewEvaluator(provider models.AIProvider, timeout time.Duration) *Evaluator {
	return &Evaluator{provider: provider, timeout: timeout}
}

// Evaluate returns the model's evaluation and whether the fallback was used.
// A response that cannot be parsed is not an error: the conservative
// FallbackEvaluation is returned instead. Provider failures are returned as errors.
func (e *Evaluator) Evaluate(ctx context.Context, jobDescription, resumeText string) (Evaluation, bool, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.provider.Complete(ctx, models.CompletionRequest{
		Prompt:      fmt.Sprintf(screeningPrompt, strings.TrimSpace(jobDescription), truncateString(resumeText, 24000)),
		MaxTokens:   1000,
		Temperature: 0.2,
	})
	if err != nil {
		return Evaluation{}, false, fmt.Errorf("evaluate resume: %w", err)
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		slog.Warn("unparseable evaluation, using fallback",
			"provider", e.provider.Name(),
			"error", err,
			"response", truncateString(raw, 500),
		)
		return FallbackEvaluation(), true, nil
	}
	return eval, false, nil
}
