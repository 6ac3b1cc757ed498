package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/docstore"
	"github.com/kiranshivaraju/recruitflow/internal/extract"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Extract detects the text of the candidate's resume and moves the record
// from SUBMITTED to EXTRACTED.
func (s *Stages) Extract(ctx context.Context, candidateID string) (*models.Candidate, error) {
	c, skip, err := s.load(ctx, StageExtract, candidateID, models.StatusSubmitted)
	if err != nil || skip {
		return c, err
	}

	if !docstore.Supported(c.ResumeKey) {
		return nil, stageErr(StageExtract, KindUnsupportedFormat, c.ID,
			fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, c.ResumeKey))
	}

	cctx, cancel := s.capabilityContext(ctx)
	defer cancel()

	text, err := s.detectText(cctx, c.ResumeKey)
	if err != nil {
		return nil, s.extractionErr(c.ID, err)
	}

	return s.commit(ctx, StageExtract, c, func(next *models.Candidate) error {
		next.ResumeText = &text
		next.Status = models.StatusExtracted
		return nil
	})
}

var errNoText = errors.New("no text detected in document")

type extractionFailedError struct{ message string }

func (e *extractionFailedError) Error() string {
	if e.message == "" {
		return "text detection job failed"
	}
	return "text detection job failed: " + e.message
}

// detectText starts a detection job, polls it until it is terminal and then
// walks every result page, joining LINE blocks in page order.
func (s *Stages) detectText(ctx context.Context, key string) (string, error) {
	jobID, err := s.extractor.StartTextDetection(ctx, key)
	if err != nil {
		return "", fmt.Errorf("start text detection: %w", err)
	}

	res, err := s.pollDetection(ctx, jobID)
	if err != nil {
		return "", err
	}
	if res.Status == extract.StatusFailed {
		return "", &extractionFailedError{message: res.StatusMessage}
	}

	var lines []string
	for {
		for _, b := range res.Blocks {
			if b.Type == extract.BlockLine {
				lines = append(lines, b.Text)
			}
		}
		if res.NextToken == "" {
			break
		}
		res, err = s.extractor.GetTextDetection(ctx, jobID, res.NextToken)
		if err != nil {
			return "", fmt.Errorf("get text detection page: %w", err)
		}
	}

	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}
	return text, nil
}

func (s *Stages) pollDetection(ctx context.Context, jobID string) (*extract.Result, error) {
	interval := s.cfg.ExtractionPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.extractor.GetTextDetection(ctx, jobID, "")
		if err != nil {
			return nil, fmt.Errorf("get text detection: %w", err)
		}
		if res.Status.Terminal() {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("text detection %s still %s: %w", jobID, res.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Stages) extractionErr(candidateID string, err error) *StageError {
	var failed *extractionFailedError
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return stageErr(StageExtract, KindUnsupportedFormat, candidateID, err)
	case errors.As(err, &failed), errors.Is(err, errNoText),
		errors.Is(err, docstore.ErrNotFound), errors.Is(err, docstore.ErrInvalidKey):
		return permanentErr(StageExtract, candidateID, err)
	default:
		return stageErr(StageExtract, KindExternalCapability, candidateID, err)
	}
}
