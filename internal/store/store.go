package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrPreconditionFailed is returned by ConditionalUpdate when the record's
// status no longer matches the status the caller observed.
var ErrPreconditionFailed = errors.New("precondition failed")

// ErrInvalidTransition is returned when a mutation would move a record along
// an edge that is not part of the status DAG.
var ErrInvalidTransition = errors.New("invalid status transition")

// Mutation changes a candidate in place. It runs while the record is locked,
// so it must be a pure function of its argument: no I/O, no external calls.
type Mutation func(c *models.Candidate) error

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	Get(ctx context.Context, id string) (*models.Candidate, error)
	Put(ctx context.Context, c *models.Candidate) error
	ConditionalUpdate(ctx context.Context, id string, expected models.Status, mutate Mutation) (*models.Candidate, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*models.Candidate, int, error)
	JobsWithStatus(ctx context.Context, status models.Status) ([]string, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

// CandidateFilter selects candidates for listing. A zero Limit returns every
// matching record, which is what cohort snapshots need.
type CandidateFilter struct {
	JobID  string
	Status models.Status
	Page   int
	Limit  int
}

// applyMutation runs mutate against a copy of current and checks the result
// against the status DAG. The returned record carries a strictly later
// updatedDate than current.
func applyMutation(current *models.Candidate, expected models.Status, mutate Mutation, now func() time.Time) (*models.Candidate, error) {
	if current.Status != expected {
		return nil, ErrPreconditionFailed
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	// Identity and submission data belong to intake.
	next.ID = current.ID
	next.JobID = current.JobID
	next.SubmissionDate = current.SubmissionDate

	if next.Status != current.Status && !models.CanTransition(current.Status, next.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next.Status)
	}

	ts := now().UTC().Truncate(time.Microsecond)
	if !ts.After(current.UpdatedDate) {
		ts = current.UpdatedDate.Add(time.Microsecond)
	}
	next.UpdatedDate = ts
	return next, nil
}
