package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("recruitflow_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	// A second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestPostgresStore_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)

	runStoreContract(t, func(t *testing.T) store.Store {
		_, err := pool.Exec(context.Background(), `TRUNCATE candidates, api_keys`)
		require.NoError(t, err)
		return store.NewPostgresStore(pool)
	})
}

func TestPostgresStore_StageBlocksRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newCandidate("cand-1", "job-1", time.Now())))
	_, err := s.ConditionalUpdate(ctx, "cand-1", models.StatusSubmitted, func(c *models.Candidate) error {
		text := "Senior Go engineer"
		c.ResumeText = &text
		c.Status = models.StatusExtracted
		return nil
	})
	require.NoError(t, err)

	_, err = s.ConditionalUpdate(ctx, "cand-1", models.StatusExtracted, func(c *models.Candidate) error {
		c.Screening = &models.Screening{
			Score:          87,
			Assessment:     "Strong backend background",
			MatchingSkills: []string{"Go", "PostgreSQL"},
			MissingSkills:  []string{"Kubernetes"},
			Recommendation: models.RecommendationProceed,
		}
		c.Status = models.StatusScreened
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "cand-1")
	require.NoError(t, err)
	require.NotNil(t, got.Screening)
	assert.Equal(t, 87, got.Screening.Score)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, got.Screening.MatchingSkills)
	assert.Equal(t, models.RecommendationProceed, got.Screening.Recommendation)
	assert.Nil(t, got.Ranking)
	assert.Nil(t, got.Failure)
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
