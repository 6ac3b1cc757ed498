package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

const scriptPrompt = `You are an AI assistant for a recruiting team. Your task is to create a phone interview script for a candidate.

JOB DESCRIPTION:
%s

CANDIDATE INFORMATION:
Name: %s
Matching Skills: %s
Skills to Validate: %s

Please generate a complete phone interview script with:

1. An introduction explaining who you are and the purpose of the call
2. 3-5 questions to validate the candidate's relevant experience
3. 2-3 questions to assess the candidate's fit for the role
4. 1-2 questions to dig deeper into any skills gaps
5. An opportunity for the candidate to ask questions
6. A conclusion explaining next steps

The script should be conversational, professional, and designed to be read by a voice assistant during a phone call.`

// ScriptRequest carries what the script writer knows about the candidate.
type ScriptRequest struct {
	CandidateName  string
	JobDescription string
	MatchingSkills []string
	MissingSkills  []string
}

// ScriptWriter produces phone interview scripts.
type ScriptWriter struct {
	provider models.AIProvider
	timeout  time.Duration
}

func NewScriptWriter(provider models.AIProvider, timeout time.Duration) *ScriptWriter {
	return &ScriptWriter{provider: provider, timeout: timeout}
}

// Generate returns the interview script. An empty response is ErrInvalidResponse
// since there is nothing safe to read to the candidate.
func (w *ScriptWriter) Generate(ctx context.Context, req ScriptRequest) (string, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	name := req.CandidateName
	if name == "" {
		name = "Candidate"
	}

	raw, err := w.provider.Complete(ctx, models.CompletionRequest{
		Prompt: fmt.Sprintf(scriptPrompt,
			strings.TrimSpace(req.JobDescription), name,
			strings.Join(req.MatchingSkills, ", "),
			strings.Join(req.MissingSkills, ", ")),
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}

	script := StripCodeFence(raw)
	if script == "" {
		return "", fmt.Errorf("generate script: %w: empty script", ErrInvalidResponse)
	}
	return script, nil
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
