package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// MemoryStore is an in-process Store for local development and tests.
// Records are cloned on the way in and out, so callers never share memory
// with the stored copy.
type MemoryStore struct {
	mu         sync.Mutex
	candidates map[string]*models.Candidate
	apiKeys    map[uuid.UUID]*models.APIKey
	now        func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string]*models.Candidate),
		apiKeys:    make(map[uuid.UUID]*models.APIKey),
		now:        time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[c.ID]; ok {
		return ErrDuplicateKey
	}
	s.candidates[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) ConditionalUpdate(_ context.Context, id string, expected models.Status, mutate Mutation) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}

	next, err := applyMutation(current, expected, mutate, s.now)
	if err != nil {
		return nil, err
	}
	s.candidates[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) ListCandidates(_ context.Context, filter CandidateFilter) ([]*models.Candidate, int, error) {
	s.mu.Lock()
	var matched []*models.Candidate
	for _, c := range s.candidates {
		if filter.JobID != "" && c.JobID != filter.JobID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, c.Clone())
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmissionDate.Equal(matched[j].SubmissionDate) {
			return matched[i].SubmissionDate.Before(matched[j].SubmissionDate)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if filter.Limit <= 0 {
		return matched, total, nil
	}

	limit, offset := normalizePage(filter.Page, filter.Limit)
	if offset >= total {
		return []*models.Candidate{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *MemoryStore) JobsWithStatus(_ context.Context, status models.Status) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var jobs []string
	for _, c := range s.candidates {
		if c.Status == status && !seen[c.JobID] {
			seen[c.JobID] = true
			jobs = append(jobs, c.JobID)
		}
	}
	sort.Strings(jobs)
	return jobs, nil
}

func (s *MemoryStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []*models.APIKey
	for _, k := range s.apiKeys {
		if k.KeyPrefix == prefix && k.DeletedAt == nil {
			cp := *k
			keys = append(keys, &cp)
		}
	}
	return keys, nil
}

func (s *MemoryStore) UpdateAPIKeyLastUsed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.apiKeys[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now().UTC()
	k.LastUsedAt = &now
	k.UpdatedAt = now
	return nil
}

func (s *MemoryStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.apiKeys {
		if k.ID == key.ID || k.KeyHash == key.KeyHash {
			return ErrDuplicateKey
		}
	}
	cp := *key
	s.apiKeys[key.ID] = &cp
	return nil
}

// normalizePage clamps pagination parameters and returns limit and offset.
func normalizePage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
