package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Evaluation is the structured verdict a model returns for one resume.
type Evaluation struct {
	Score          int                   `json:"score"`
	Assessment     string                `json:"assessment"`
	MatchingSkills []string              `json:"matching_skills"`
	MissingSkills  []string              `json:"missing_skills"`
	Recommendation models.Recommendation `json:"recommendation"`
}

// FallbackEvaluation is substituted when a model response cannot be parsed.
func FallbackEvaluation() Evaluation {
	return Evaluation{
		Score:          0,
		Assessment:     "Error processing resume",
		MatchingSkills: []string{},
		MissingSkills:  []string{},
		Recommendation: models.RecommendationReject,
	}
}

// StripCodeFence removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the outermost {...} span of s, so leading or
// trailing prose around the payload is tolerated.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseEvaluation decodes a model response into an Evaluation. Any response
// that is not a JSON object with a usable score and recommendation yields
// ErrInvalidResponse.
func ParseEvaluation(raw string) (Evaluation, error) {
	body, ok := extractJSONObject(StripCodeFence(raw))
	if !ok {
		return Evaluation{}, fmt.Errorf("%w: no JSON object in response", ErrInvalidResponse)
	}

	var payload struct {
		Score          *float64 `json:"score"`
		Assessment     string   `json:"assessment"`
		MatchingSkills []string `json:"matching_skills"`
		MissingSkills  []string `json:"missing_skills"`
		Recommendation string   `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if payload.Score == nil {
		return Evaluation{}, fmt.Errorf("%w: missing score", ErrInvalidResponse)
	}
	if *payload.Score < 0 || *payload.Score > 100 {
		return Evaluation{}, fmt.Errorf("%w: score %v out of range", ErrInvalidResponse, *payload.Score)
	}

	rec := models.Recommendation(strings.ToUpper(strings.TrimSpace(payload.Recommendation)))
	if rec != models.RecommendationProceed && rec != models.RecommendationReject {
		return Evaluation{}, fmt.Errorf("%w: recommendation %q", ErrInvalidResponse, payload.Recommendation)
	}

	return Evaluation{
		Score:          int(*payload.Score + 0.5),
		Assessment:     payload.Assessment,
		MatchingSkills: dedupe(payload.MatchingSkills),
		MissingSkills:  dedupe(payload.MissingSkills),
		Recommendation: rec,
	}, nil
}

// dedupe keeps the first occurrence of each non-blank skill.
func dedupe(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
