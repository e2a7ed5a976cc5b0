package database

import (
	"context"
	"database/sql"
	"fmt"

	"feedback_portal/internal/domain/digest"

	"github.com/lib/pq"
)

var ErrDigestNotFound = fmt.Errorf("monthly digest not found")
var ErrDuplicateDigest = fmt.Errorf("monthly digest already exists")

const uniqueViolation = "23505"

type PostgresDigestRepository struct {
	db *sql.DB
}

func NewPostgresDigestRepository(db *sql.DB) *PostgresDigestRepository {
	return &PostgresDigestRepository{db: db}
}

var _ digest.Repository = (*PostgresDigestRepository)(nil)

func (r *PostgresDigestRepository) Get(ctx context.Context, monthKey string) (*digest.Digest, error) {
	query := `SELECT month_key, start_date, end_date, generated_at, positive_bullets, actionable_bullets, feedback_count
               FROM monthly_digests WHERE month_key = $1`
	d, err := scanDigest(getDB(ctx, r.db).QueryRowContext(ctx, query, monthKey))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDigestNotFound
		}
		return nil, fmt.Errorf("error getting monthly digest: %w", err)
	}
	return d, nil
}

func (r *PostgresDigestRepository) Create(ctx context.Context, d *digest.Digest) error {
	query := `INSERT INTO monthly_digests (month_key, start_date, end_date, positive_bullets, actionable_bullets, feedback_count)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING generated_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, d.MonthKey, d.StartDate, d.EndDate,
		pq.StringArray(nonNil(d.Positive)), pq.StringArray(nonNil(d.Actionable)), d.FeedbackCount).
		Scan(&d.GeneratedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicateDigest
		}
		return fmt.Errorf("error creating monthly digest: %w", err)
	}
	return nil
}

func (r *PostgresDigestRepository) ListRecent(ctx context.Context, limit int) ([]*digest.Digest, error) {
	query := `SELECT month_key, start_date, end_date, generated_at, positive_bullets, actionable_bullets, feedback_count
               FROM monthly_digests ORDER BY month_key DESC LIMIT $1`
	rows, err := getDB(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing monthly digests: %w", err)
	}
	defer rows.Close()

	digests := make([]*digest.Digest, 0)
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning monthly digest: %w", err)
		}
		digests = append(digests, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly digests: %w", err)
	}
	return digests, nil
}

func scanDigest(row rowScanner) (*digest.Digest, error) {
	d := &digest.Digest{}
	var positive, actionable pq.StringArray
	if err := row.Scan(&d.MonthKey, &d.StartDate, &d.EndDate, &d.GeneratedAt, &positive, &actionable, &d.FeedbackCount); err != nil {
		return nil, err
	}
	d.Positive = []string(positive)
	d.Actionable = []string(actionable)
	return d, nil
}
