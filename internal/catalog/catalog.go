// Package catalog serves job records to the pipeline. It is read-only: jobs
// come from built-in defaults and an optional YAML file loaded at startup.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

var ErrJobNotFound = errors.New("job not found")

// GenericDescription is served for job ids the catalog does not know.
const GenericDescription = `Generic Technical Position

Responsibilities:
- Contribute to technical projects and initiatives
- Collaborate with team members and stakeholders
- Ensure high-quality deliverables and outcomes

Requirements:
- Technical degree or equivalent experience
- Strong problem-solving skills
- Ability to work in a collaborative environment
- Good communication skills`

// Catalog is an in-memory job catalog.
type Catalog struct {
	jobs map[string]models.JobRecord
}

type fileFormat struct {
	Jobs []models.JobRecord `yaml:"jobs"`
}

// New returns a catalog holding the built-in jobs.
func New() *Catalog {
	c := &Catalog{jobs: make(map[string]models.JobRecord, len(builtinJobs))}
	for _, j := range builtinJobs {
		c.jobs[j.ID] = j
	}
	return c
}

// Load returns the built-in catalog extended with the jobs in the YAML file
// at path. Entries in the file replace built-ins with the same id. An empty
// path loads only the built-ins.
func Load(path string) (*Catalog, error) {
	c := New()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for i, j := range f.Jobs {
		j.ID = strings.TrimSpace(j.ID)
		if j.ID == "" {
			return fmt.Errorf("job %d: id is required", i)
		}
		if strings.TrimSpace(j.Description) == "" {
			return fmt.Errorf("job %q: description is required", j.ID)
		}
		c.jobs[j.ID] = j
	}
	return nil
}

// Get returns the job record for jobID.
func (c *Catalog) Get(_ context.Context, jobID string) (models.JobRecord, error) {
	j, ok := c.jobs[jobID]
	if !ok {
		return models.JobRecord{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return j, nil
}

// List returns the jobs in category, newest posting first. An empty category
// lists every job. Categories match case-insensitively.
func (c *Catalog) List(_ context.Context, category string) []models.JobRecord {
	category = strings.TrimSpace(category)
	out := make([]models.JobRecord, 0, len(c.jobs))
	for _, j := range c.jobs {
		if category != "" && !strings.EqualFold(j.Category, category) {
			continue
		}
		out = append(out, j)
	}
	slices.SortFunc(out, func(a, b models.JobRecord) int {
		if cmp := b.PostedDate.Compare(a.PostedDate); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// GetDescription returns the description for jobID, or GenericDescription
// when the id is unknown. It never fails.
func (c *Catalog) GetDescription(ctx context.Context, jobID string) string {
	j, err := c.Get(ctx, jobID)
	if err != nil {
		return GenericDescription
	}
	return strings.TrimSpace(j.Description)
}

// Len returns the number of jobs in the catalog.
func (c *Catalog) Len() int {
	return len(c.jobs)
}
