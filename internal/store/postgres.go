package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

const candidateColumns = `id, job_id, full_name, email, phone, resume_key, resume_text, status,
	submission_date, updated_date, screening, ranking, phone_interview, interview, failure`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

var _ Store = (*PostgresStore)(nil)

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Candidates ---

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Candidate, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Put(ctx context.Context, c *models.Candidate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.JobID, c.FullName, c.Email, c.Phone, c.ResumeKey, c.ResumeText, c.Status,
		c.SubmissionDate, c.UpdatedDate, c.Screening, c.Ranking, c.PhoneInterview, c.Interview, c.Failure)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// ConditionalUpdate locks the row, checks the expected status and writes the
// mutated record in one transaction. Two racing writers with the same
// expectation serialize on the row lock; the second sees the new status and
// gets ErrPreconditionFailed.
func (s *PostgresStore) ConditionalUpdate(ctx context.Context, id string, expected models.Status, mutate Mutation) (*models.Candidate, error) {
	var updated *models.Candidate
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanCandidate(tx.QueryRow(ctx,
			`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock candidate: %w", err)
		}

		next, err := applyMutation(current, expected, mutate, s.now)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE candidates SET full_name = $2, email = $3, phone = $4, resume_key = $5,
			   resume_text = $6, status = $7, updated_date = $8, screening = $9, ranking = $10,
			   phone_interview = $11, interview = $12, failure = $13
			 WHERE id = $1`,
			id, next.FullName, next.Email, next.Phone, next.ResumeKey, next.ResumeText, next.Status,
			next.UpdatedDate, next.Screening, next.Ranking, next.PhoneInterview, next.Interview, next.Failure)
		if err != nil {
			return fmt.Errorf("update candidate: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*models.Candidate, int, error) {
	where := sq.And{}
	if filter.JobID != "" {
		where = append(where, sq.Eq{"job_id": filter.JobID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("candidates").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build candidate count: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	query := psql.Select(candidateColumns).From("candidates").Where(where).
		OrderBy("submission_date ASC", "id ASC")
	if filter.Limit > 0 {
		limit, offset := normalizePage(filter.Page, filter.Limit)
		query = query.Limit(uint64(limit)).Offset(uint64(offset))
	}

	dataSQL, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build candidate list: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []*models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, total, rows.Err()
}

func (s *PostgresStore) JobsWithStatus(ctx context.Context, status models.Status) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT job_id FROM candidates WHERE status = $1 ORDER BY job_id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("jobs with status: %w", err)
	}
	defer rows.Close()

	var jobs []string
	for rows.Next() {
		var jobID string
		if err := rows.Scan(&jobID); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		jobs = append(jobs, jobID)
	}
	return jobs, rows.Err()
}

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate
	var status string
	err := row.Scan(&c.ID, &c.JobID, &c.FullName, &c.Email, &c.Phone, &c.ResumeKey, &c.ResumeText,
		&status, &c.SubmissionDate, &c.UpdatedDate,
		&c.Screening, &c.Ranking, &c.PhoneInterview, &c.Interview, &c.Failure)
	if err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	c.SubmissionDate = c.SubmissionDate.UTC()
	c.UpdatedDate = c.UpdatedDate.UTC()
	return &c, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
