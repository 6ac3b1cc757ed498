// Package extract runs asynchronous text detection over stored documents.
// A detection job is started once and then polled; results are returned in
// pages of LINE blocks linked by a continuation token.
package extract

import (
	"context"
	"errors"
)

type JobStatus string

const (
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusSucceeded  JobStatus = "SUCCEEDED"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether polling can stop.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

type BlockType string

const (
	BlockPage BlockType = "PAGE"
	BlockLine BlockType = "LINE"
)

// Block is one unit of detected text.
type Block struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
	Page int       `json:"page"`
}

// Result is one response from GetTextDetection. Blocks and NextToken are only
// set once Status is SUCCEEDED.
type Result struct {
	Status        JobStatus
	StatusMessage string
	Blocks        []Block
	NextToken     string
}

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrJobNotFound       = errors.New("detection job not found")
	ErrInvalidToken      = errors.New("invalid pagination token")
)

// Extractor is the document text detection capability.
type Extractor interface {
	StartTextDetection(ctx context.Context, documentKey string) (string, error)
	GetTextDetection(ctx context.Context, jobID, nextToken string) (*Result, error)
}
