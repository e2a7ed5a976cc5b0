package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedback_portal/internal/domain/summaryjob"

	"github.com/lib/pq"
)

var ErrJobNotFound = fmt.Errorf("summary job not found")

type PostgresJobRepository struct {
	db *sql.DB
}

func NewPostgresJobRepository(db *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

var _ summaryjob.Repository = (*PostgresJobRepository)(nil)

const jobColumns = `id, job_type, target_id, feedback_id, status, created_at, updated_at`

func (r *PostgresJobRepository) Create(ctx context.Context, job *summaryjob.Job) error {
	query := `INSERT INTO summary_job_queue (job_type, target_id, feedback_id, status)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`
	if job.Status == "" {
		job.Status = summaryjob.StatusPending
	}
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, job.Kind, job.Target, job.FeedbackID, job.Status).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating summary job: %w", err)
	}
	return nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id int64) (*summaryjob.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM summary_job_queue WHERE id = $1`
	job, err := scanJob(getDB(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("error getting summary job by ID: %w", err)
	}
	return job, nil
}

func (r *PostgresJobRepository) ListByStatus(ctx context.Context, status summaryjob.Status, limit int) ([]*summaryjob.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM summary_job_queue WHERE status = $1 ORDER BY created_at, id`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := getDB(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing summary jobs by status: %w", err)
	}
	defer rows.Close()

	jobs := make([]*summaryjob.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning summary job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary jobs: %w", err)
	}
	return jobs, nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, ids []int64, status summaryjob.Status) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE summary_job_queue SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	if _, err := getDB(ctx, r.db).ExecContext(ctx, query, status, pq.Array(ids)); err != nil {
		return fmt.Errorf("error updating summary job status to %s: %w", status, err)
	}
	return nil
}

func (r *PostgresJobRepository) DeleteByFeedbackID(ctx context.Context, feedbackID int64) (int64, error) {
	res, err := getDB(ctx, r.db).ExecContext(ctx, `DELETE FROM summary_job_queue WHERE feedback_id = $1`, feedbackID)
	if err != nil {
		return 0, fmt.Errorf("error deleting summary jobs for feedback %d: %w", feedbackID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted summary job count: %w", err)
	}
	return n, nil
}

func (r *PostgresJobRepository) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE summary_job_queue SET status = $1, updated_at = NOW()
               WHERE status = $2 AND updated_at < $3`
	res, err := getDB(ctx, r.db).ExecContext(ctx, query, summaryjob.StatusPending, summaryjob.StatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error requeueing stale summary jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading requeued summary job count: %w", err)
	}
	return n, nil
}

func (r *PostgresJobRepository) CountByStatus(ctx context.Context) (map[summaryjob.Status]int, error) {
	rows, err := getDB(ctx, r.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM summary_job_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("error counting summary jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[summaryjob.Status]int)
	for rows.Next() {
		var status summaryjob.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning summary job count: %w", err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary job counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*summaryjob.Job, error) {
	job := &summaryjob.Job{}
	if err := row.Scan(&job.ID, &job.Kind, &job.Target, &job.FeedbackID, &job.Status, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	return job, nil
}
