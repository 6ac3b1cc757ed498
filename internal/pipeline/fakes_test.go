package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	"github.com/kiranshivaraju/recruitflow/internal/ai/mock"
	"github.com/kiranshivaraju/recruitflow/internal/calendar"
	"github.com/kiranshivaraju/recruitflow/internal/catalog"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/extract"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/require"
)

// fakeExtractor reports IN_PROGRESS for pendingPolls polls, then either
// FAILED (when failMessage is set) or SUCCEEDED with pages.
type fakeExtractor struct {
	mu           sync.Mutex
	pages        [][]extract.Block
	pendingPolls int
	failMessage  string
	startErr     error
	starts       int
	polls        int
}

func linesPage(page int, lines ...string) []extract.Block {
	blocks := []extract.Block{{Type: extract.BlockPage, Page: page}}
	for _, l := range lines {
		blocks = append(blocks, extract.Block{Type: extract.BlockLine, Text: l, Page: page})
	}
	return blocks
}

func (f *fakeExtractor) StartTextDetection(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return "", f.startErr
	}
	return "job-" + key, nil
}

func (f *fakeExtractor) GetTextDetection(_ context.Context, _ string, nextToken string) (*extract.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if nextToken == "" {
		f.polls++
		if f.polls <= f.pendingPolls {
			return &extract.Result{Status: extract.StatusInProgress}, nil
		}
	}
	if f.failMessage != "" {
		return &extract.Result{Status: extract.StatusFailed, StatusMessage: f.failMessage}, nil
	}

	page := 0
	if nextToken != "" {
		n, err := strconv.Atoi(nextToken)
		if err != nil {
			return nil, extract.ErrInvalidToken
		}
		page = n
	}
	res := &extract.Result{Status: extract.StatusSucceeded}
	if page < len(f.pages) {
		res.Blocks = f.pages[page]
	}
	if page+1 < len(f.pages) {
		res.NextToken = strconv.Itoa(page + 1)
	}
	return res, nil
}

type fakeDialer struct {
	mu    sync.Mutex
	calls []telephony.Call
	err   error
}

func (d *fakeDialer) StartCall(_ context.Context, call telephony.Call) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.calls = append(d.calls, call)
	return fmt.Sprintf("contact-%d", len(d.calls)), nil
}

func (d *fakeDialer) Calls() []telephony.Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]telephony.Call(nil), d.calls...)
}

type fakeSlots struct {
	slots []calendar.Slot
	err   error
}

func (f *fakeSlots) FindSlots(context.Context, string, string) ([]calendar.Slot, error) {
	return f.slots, f.err
}

type sentMessage struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
}

func (n *fakeNotifier) Send(_ context.Context, recipient, subject, body string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failFor[recipient]; ok {
		return "", err
	}
	n.sent = append(n.sent, sentMessage{recipient, subject, body})
	return fmt.Sprintf("msg-%d", len(n.sent)), nil
}

func (n *fakeNotifier) Sent() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type harness struct {
	store     *store.MemoryStore
	extractor *fakeExtractor
	provider  *mock.MockProvider
	dialer    *fakeDialer
	slots     *fakeSlots
	notifier  *fakeNotifier
	stages    *Stages
	orch      *Orchestrator
}

var testSlot = calendar.Slot{
	Start:     time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC),
	Formatted: "Tuesday, October 20, 2026 at 10:00 AM",
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		CapabilityTimeout:      2 * time.Second,
		ExtractionPollInterval: time.Millisecond,
		MaxAttempts:            3,
		RetryInitialInterval:   time.Millisecond,
		HiringManagerEmail:     "hiring_manager@example.com",
		TechnicalStaffEmail:    "tech_staff@example.com",
	}
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store: store.NewMemoryStore(),
		extractor: &fakeExtractor{pages: [][]extract.Block{
			linesPage(0, "Ada Lovelace", "Senior Go Engineer"),
		}},
		provider: mock.NewMockProvider(),
		dialer:   &fakeDialer{},
		slots:    &fakeSlots{slots: []calendar.Slot{testSlot}},
		notifier: &fakeNotifier{failFor: map[string]error{}},
	}
	cfg := testPipelineConfig()
	h.stages = NewStages(Deps{
		Store:     h.store,
		Extractor: h.extractor,
		Catalog:   catalog.New(),
		Evaluator: ai.NewEvaluator(h.provider, 0),
		Scripts:   ai.NewScriptWriter(h.provider, 0),
		Dialer:    h.dialer,
		Slots:     h.slots,
		Notifier:  h.notifier,
	}, cfg)
	h.orch = NewOrchestrator(h.stages, cfg, append([]Option{WithBackground(false)}, opts...)...)
	t.Cleanup(func() { _ = h.orch.Shutdown(context.Background()) })
	return h
}

var baseTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// seed stores a candidate at the given status with the stage blocks that
// status implies.
func (h *harness) seed(t *testing.T, id, jobID string, status models.Status, score int, submitted time.Time) *models.Candidate {
	t.Helper()
	text := "resume of " + id
	c := &models.Candidate{
		ID:             id,
		JobID:          jobID,
		FullName:       "Candidate " + id,
		Email:          id + "@example.com",
		Phone:          "+15550100",
		ResumeKey:      "resumes/" + jobID + "/" + id + ".pdf",
		Status:         status,
		SubmissionDate: submitted,
		UpdatedDate:    submitted,
	}
	if status.ReachedOrPassed(models.StatusExtracted) {
		c.ResumeText = &text
	}
	if status.ReachedOrPassed(models.StatusScreened) {
		c.Screening = &models.Screening{
			Score:          score,
			MatchingSkills: []string{"Go"},
			MissingSkills:  []string{"Kubernetes"},
			Recommendation: models.RecommendationProceed,
		}
	}
	require.NoError(t, h.store.Put(context.Background(), c))
	return c
}

func (h *harness) get(t *testing.T, id string) *models.Candidate {
	t.Helper()
	c, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return c
}

// racingStore lets another writer advance a record right before the
// pipeline's own conditional update lands.
type racingStore struct {
	store.Store
	raceID string
	raced  bool
}

func (r *racingStore) ConditionalUpdate(ctx context.Context, id string, expected models.Status, mutate store.Mutation) (*models.Candidate, error) {
	if id == r.raceID && !r.raced {
		r.raced = true
		if _, err := r.Store.ConditionalUpdate(ctx, id, expected, func(c *models.Candidate) error {
			c.Status = models.StatusRejected
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return r.Store.ConditionalUpdate(ctx, id, expected, mutate)
}

var errBoom = errors.New("boom")
