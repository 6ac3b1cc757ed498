package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"code.sajari.com/docconv"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/recruitflow/internal/docstore"
)

const defaultLinesPerPage = 200

// ConvertFunc turns the file at path into plain text.
type ConvertFunc func(path string) (string, error)

// DocconvConvert converts with docconv, which shells out to pdftotext,
// wvText and friends depending on the format.
func DocconvConvert(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

type detectionJob struct {
	status    JobStatus
	message   string
	pages     [][]Block
	createdAt time.Time
}

// DocconvExtractor implements Extractor by converting documents in a
// background goroutine per job.
type DocconvExtractor struct {
	docs         *docstore.FileStore
	convert      ConvertFunc
	linesPerPage int
	retention    time.Duration

	mu   sync.Mutex
	jobs map[string]*detectionJob
}

// Option configures a DocconvExtractor.
type Option func(*DocconvExtractor)

// WithConverter replaces the docconv conversion, mainly for tests.
func WithConverter(fn ConvertFunc) Option {
	return func(e *DocconvExtractor) { e.convert = fn }
}

// WithLinesPerPage sets how many LINE blocks each result page carries.
func WithLinesPerPage(n int) Option {
	return func(e *DocconvExtractor) {
		if n > 0 {
			e.linesPerPage = n
		}
	}
}

// NewDocconvExtractor creates an extractor over docs. Finished jobs are
// forgotten an hour after they were started.
func NewDocconvExtractor(docs *docstore.FileStore, opts ...Option) *DocconvExtractor {
	e := &DocconvExtractor{
		docs:         docs,
		convert:      DocconvConvert,
		linesPerPage: defaultLinesPerPage,
		retention:    time.Hour,
		jobs:         make(map[string]*detectionJob),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Extractor = (*DocconvExtractor)(nil)

// StartTextDetection validates the document and starts conversion. The
// returned job id is polled with GetTextDetection.
func (e *DocconvExtractor) StartTextDetection(ctx context.Context, documentKey string) (string, error) {
	if !docstore.Supported(documentKey) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, documentKey)
	}
	ok, err := e.docs.Exists(ctx, documentKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", docstore.ErrNotFound, documentKey)
	}
	path, err := e.docs.Path(documentKey)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now()

	e.mu.Lock()
	e.evictLocked(now)
	e.jobs[id] = &detectionJob{status: StatusInProgress, createdAt: now}
	e.mu.Unlock()

	go e.run(id, path)
	return id, nil
}

func (e *DocconvExtractor) run(id, path string) {
	text, err := e.convert(path)

	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[id]
	if !ok {
		return
	}
	if err != nil {
		job.status = StatusFailed
		job.message = err.Error()
		return
	}
	job.pages = paginate(text, e.linesPerPage)
	job.status = StatusSucceeded
}

// GetTextDetection returns the job status and, once succeeded, the page of
// blocks addressed by nextToken (empty for the first page).
func (e *DocconvExtractor) GetTextDetection(_ context.Context, jobID, nextToken string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.status != StatusSucceeded {
		return &Result{Status: job.status, StatusMessage: job.message}, nil
	}

	page := 0
	if nextToken != "" {
		n, err := strconv.Atoi(nextToken)
		if err != nil || n < 1 || n >= len(job.pages) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidToken, nextToken)
		}
		page = n
	}

	res := &Result{Status: StatusSucceeded}
	if len(job.pages) > 0 {
		res.Blocks = job.pages[page]
	}
	if page+1 < len(job.pages) {
		res.NextToken = strconv.Itoa(page + 1)
	}
	return res, nil
}

func (e *DocconvExtractor) evictLocked(now time.Time) {
	for id, job := range e.jobs {
		if now.Sub(job.createdAt) > e.retention {
			delete(e.jobs, id)
		}
	}
}

// paginate splits text into pages of at most perPage LINE blocks. Blank
// lines carry no text and are dropped. Each page starts with a PAGE block.
func paginate(text string, perPage int) [][]Block {
	var pages [][]Block
	var current []Block
	lines := 0

	// Lines of any length are kept whole; the text is already in memory.
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if lines == 0 {
			current = []Block{{Type: BlockPage, Page: len(pages) + 1}}
		}
		current = append(current, Block{Type: BlockLine, Text: line, Page: len(pages) + 1})
		lines++
		if lines == perPage {
			pages = append(pages, current)
			current, lines = nil, 0
		}
	}
	if lines > 0 {
		pages = append(pages, current)
	}
	return pages
}
