package database

import (
	"context"
	"database/sql"
	"fmt"

	"feedback_portal/internal/domain/teacher"
)

var ErrTeacherNotFound = fmt.Errorf("teacher not found")

type PostgresTeacherRepository struct {
	db *sql.DB
}

func NewPostgresTeacherRepository(db *sql.DB) *PostgresTeacherRepository {
	return &PostgresTeacherRepository{db: db}
}

var _ teacher.Repository = (*PostgresTeacherRepository)(nil)

const teacherColumns = `id, first_name, last_name, subject, is_active, created_at, updated_at`

func (r *PostgresTeacherRepository) Create(ctx context.Context, t *teacher.Teacher) error {
	query := `INSERT INTO teachers (first_name, last_name, subject, is_active)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, t.FirstName, t.LastName, t.Subject, t.IsActive).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating teacher: %w", err)
	}
	return nil
}

func (r *PostgresTeacherRepository) GetByID(ctx context.Context, id int64) (*teacher.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`
	t, err := scanTeacher(getDB(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("error getting teacher by ID: %w", err)
	}
	return t, nil
}

func (r *PostgresTeacherRepository) Update(ctx context.Context, t *teacher.Teacher) error {
	query := `UPDATE teachers
               SET first_name = $1, last_name = $2, subject = $3, is_active = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`
	err := getDB(ctx, r.db).QueryRowContext(ctx, query, t.FirstName, t.LastName, t.Subject, t.IsActive, t.ID).Scan(&t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTeacherNotFound
		}
		return fmt.Errorf("error updating teacher: %w", err)
	}
	return nil
}

func (r *PostgresTeacherRepository) ListActive(ctx context.Context) ([]*teacher.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE is_active = TRUE ORDER BY first_name, last_name`
	return r.list(ctx, query)
}

func (r *PostgresTeacherRepository) ListAll(ctx context.Context) ([]*teacher.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers ORDER BY id`
	return r.list(ctx, query)
}

func (r *PostgresTeacherRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := getDB(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM teachers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting teachers: %w", err)
	}
	return n, nil
}

func (r *PostgresTeacherRepository) list(ctx context.Context, query string) ([]*teacher.Teacher, error) {
	rows, err := getDB(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]*teacher.Teacher, 0)
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teachers: %w", err)
	}
	return teachers, nil
}

func scanTeacher(row rowScanner) (*teacher.Teacher, error) {
	t := &teacher.Teacher{}
	if err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Subject, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
