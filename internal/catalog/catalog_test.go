package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/catalog"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_BuiltinJobs(t *testing.T) {
	c := catalog.New()
	ctx := context.Background()

	for _, id := range []string{"software-engineer", "data-scientist", "devops-engineer"} {
		job, err := c.Get(ctx, id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, job.Title)
		assert.NotEmpty(t, job.Description)
	}
	assert.Equal(t, 3, c.Len())
}

func TestGetDescription_UnknownFallsBackToGeneric(t *testing.T) {
	c := catalog.New()

	desc := c.GetDescription(context.Background(), "underwater-basket-weaver")
	assert.Equal(t, catalog.GenericDescription, desc)

	_, err := c.Get(context.Background(), "underwater-basket-weaver")
	assert.ErrorIs(t, err, catalog.ErrJobNotFound)
}

func TestGetDescription_Known(t *testing.T) {
	c := catalog.New()
	desc := c.GetDescription(context.Background(), "devops-engineer")
	assert.Contains(t, desc, "Terraform")
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestLoad_MergesYAML(t *testing.T) {
	path := writeCatalog(t, `
jobs:
  - id: job-42
    title: Platform Engineer
    category: engineering
    posted_date: 2026-01-15T00:00:00Z
    description: |
      Platform Engineer
      Build the internal developer platform.
  - id: software-engineer
    title: Software Engineer (Go)
    description: Go services at scale.
`)

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	job, err := c.Get(context.Background(), "job-42")
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), job.PostedDate.UTC())
	assert.Contains(t, c.GetDescription(context.Background(), "job-42"), "developer platform")

	assert.Equal(t, "Go services at scale.", c.GetDescription(context.Background(), "software-engineer"))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "jobs: [unclosed"},
		{"missing id", "jobs:\n  - title: x\n    description: y\n"},
		{"missing description", "jobs:\n  - id: job-1\n    title: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Load(writeCatalog(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := catalog.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestList_FiltersAndSortsNewestFirst(t *testing.T) {
	path := writeCatalog(t, `
jobs:
  - id: job-old
    title: Old Engineering Role
    category: engineering
    posted_date: 2025-03-01T00:00:00Z
    description: old
  - id: job-new
    title: New Engineering Role
    category: Engineering
    posted_date: 2026-02-01T00:00:00Z
    description: new
  - id: job-data
    title: Analyst
    category: data
    posted_date: 2026-03-01T00:00:00Z
    description: data
`)
	c, err := catalog.Load(path)
	require.NoError(t, err)
	ctx := context.Background()

	ids := func(jobs []models.JobRecord) []string {
		out := make([]string, len(jobs))
		for i, j := range jobs {
			out[i] = j.ID
		}
		return out
	}

	// Built-ins carry no posted date and sort after dated postings.
	assert.Equal(t, []string{"job-new", "job-old", "software-engineer"}, ids(c.List(ctx, "engineering")))
	assert.Equal(t, []string{"job-data", "data-scientist"}, ids(c.List(ctx, " DATA ")))

	all := c.List(ctx, "")
	assert.Len(t, all, c.Len())
	assert.Equal(t, "job-data", all[0].ID)

	assert.Empty(t, c.List(ctx, "marketing"))
	assert.NotNil(t, c.List(ctx, "marketing"))
}
