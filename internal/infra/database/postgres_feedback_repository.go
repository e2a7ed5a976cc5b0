package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summaryjob"
)

var ErrFeedbackNotFound = fmt.Errorf("feedback not found")

type PostgresFeedbackRepository struct {
	db *sql.DB
}

func NewPostgresFeedbackRepository(db *sql.DB) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{db: db}
}

var _ feedback.Repository = (*PostgresFeedbackRepository)(nil)

const feedbackColumns = `id, teacher_id, category, feedback_text, toxicity_score, is_inappropriate, status,
               is_summary_approved, rating_clarity, rating_pacing, rating_resources, rating_support,
               created_at, updated_at`

// eligibleFilter selects items that may contribute to summaries.
const eligibleFilter = `is_inappropriate = FALSE AND is_summary_approved = TRUE`

func (r *PostgresFeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	query := `INSERT INTO feedback (teacher_id, category, feedback_text, toxicity_score, is_inappropriate, status,
                   is_summary_approved, rating_clarity, rating_pacing, rating_resources, rating_support)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id, created_at, updated_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query,
		f.TeacherID, f.Category, f.Text, f.ToxicityScore, f.IsInappropriate, f.Status, f.IsSummaryApproved,
		f.Ratings.Clarity, f.Ratings.Pacing, f.Ratings.Resources, f.Ratings.Support,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating feedback: %w", err)
	}
	return nil
}

func (r *PostgresFeedbackRepository) GetByID(ctx context.Context, id int64) (*feedback.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`
	f, err := scanFeedback(getDB(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("error getting feedback by ID: %w", err)
	}
	return f, nil
}

func (r *PostgresFeedbackRepository) Update(ctx context.Context, f *feedback.Feedback) error {
	query := `UPDATE feedback
               SET toxicity_score = $1, is_inappropriate = $2, status = $3, is_summary_approved = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, f.ToxicityScore, f.IsInappropriate, f.Status, f.IsSummaryApproved, f.ID).
		Scan(&f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrFeedbackNotFound
		}
		return fmt.Errorf("error updating feedback: %w", err)
	}
	return nil
}

func (r *PostgresFeedbackRepository) Delete(ctx context.Context, id int64) error {
	res, err := getDB(ctx, r.db).ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted feedback count: %w", err)
	}
	if n == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}

func (r *PostgresFeedbackRepository) ListByStatus(ctx context.Context, status feedback.Status) ([]*feedback.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE status = $1 ORDER BY created_at, id`
	return r.list(ctx, query, status)
}

func (r *PostgresFeedbackRepository) ListEligibleTexts(ctx context.Context, kind summaryjob.Kind, target string) ([]string, error) {
	var query string
	var arg any
	switch kind {
	case summaryjob.KindTeacher:
		teacherID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid teacher target %q: %w", target, err)
		}
		query = `SELECT feedback_text FROM feedback WHERE teacher_id = $1 AND ` + eligibleFilter + ` ORDER BY id`
		arg = teacherID
	case summaryjob.KindCategory:
		query = `SELECT feedback_text FROM feedback WHERE category = $1 AND ` + eligibleFilter + ` ORDER BY id`
		arg = target
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSummaryKind, kind)
	}

	rows, err := getDB(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("error listing eligible feedback: %w", err)
	}
	defer rows.Close()

	texts := make([]string, 0)
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("error scanning eligible feedback: %w", err)
		}
		texts = append(texts, text)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating eligible feedback: %w", err)
	}
	return texts, nil
}

func (r *PostgresFeedbackRepository) ListEligibleCreatedBetween(ctx context.Context, from, to time.Time) ([]*feedback.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback
               WHERE created_at >= $1 AND created_at < $2 AND ` + eligibleFilter + ` ORDER BY id`
	return r.list(ctx, query, from, to)
}

func (r *PostgresFeedbackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := getDB(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting feedback: %w", err)
	}
	return n, nil
}

func (r *PostgresFeedbackRepository) RecordStatusChange(ctx context.Context, c *feedback.StatusChange) error {
	query := `INSERT INTO feedback_status_history (feedback_id, old_status, new_status, changed_by, reason)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, c.FeedbackID, c.OldStatus, c.NewStatus, c.ChangedBy, c.Reason).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording feedback status change: %w", err)
	}
	return nil
}

func (r *PostgresFeedbackRepository) list(ctx context.Context, query string, args ...any) ([]*feedback.Feedback, error) {
	rows, err := getDB(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}
	defer rows.Close()

	items := make([]*feedback.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning feedback: %w", err)
		}
		items = append(items, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return items, nil
}

func scanFeedback(row rowScanner) (*feedback.Feedback, error) {
	f := &feedback.Feedback{}
	err := row.Scan(&f.ID, &f.TeacherID, &f.Category, &f.Text, &f.ToxicityScore, &f.IsInappropriate, &f.Status,
		&f.IsSummaryApproved, &f.Ratings.Clarity, &f.Ratings.Pacing, &f.Ratings.Resources, &f.Ratings.Support,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}
