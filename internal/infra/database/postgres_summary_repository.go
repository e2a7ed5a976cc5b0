package database

import (
	"context"
	"database/sql"
	"fmt"

	"feedback_portal/internal/domain/summary"
	"feedback_portal/internal/domain/summaryjob"

	"github.com/lib/pq"
)

var ErrSnapshotNotFound = fmt.Errorf("summary snapshot not found")
var ErrUnknownSummaryKind = fmt.Errorf("unknown summary kind")

// summaryTable describes one of the two identically shaped snapshot tables.
type summaryTable struct {
	name   string
	keyCol string
}

var summaryTables = map[summaryjob.Kind]summaryTable{
	summaryjob.KindTeacher:  {name: "teacher_summaries", keyCol: "teacher_id"},
	summaryjob.KindCategory: {name: "category_summaries", keyCol: "category_name"},
}

type PostgresSummaryRepository struct {
	db         *sql.DB
	legacyHTML bool
}

// NewPostgresSummaryRepository returns a snapshot store. When legacyHTML is
// set, rows with empty bullet arrays are read back from their HTML columns.
func NewPostgresSummaryRepository(db *sql.DB, legacyHTML bool) *PostgresSummaryRepository {
	return &PostgresSummaryRepository{db: db, legacyHTML: legacyHTML}
}

var _ summary.Repository = (*PostgresSummaryRepository)(nil)

func tableFor(kind summaryjob.Kind) (summaryTable, error) {
	t, ok := summaryTables[kind]
	if !ok {
		return summaryTable{}, fmt.Errorf("%w: %q", ErrUnknownSummaryKind, kind)
	}
	return t, nil
}

func (r *PostgresSummaryRepository) Get(ctx context.Context, kind summaryjob.Kind, target string) (*summary.Snapshot, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s, raw_positive_bullets, raw_actionable_bullets,
               latest_positive_summary, latest_actionable_summary, updated_at
               FROM %s WHERE %s = $1`, t.keyCol, t.name, t.keyCol)

	s, err := r.scanSnapshot(kind, getDB(ctx, r.db).QueryRowContext(ctx, query, target))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("error getting %s summary: %w", kind, err)
	}
	return s, nil
}

func (r *PostgresSummaryRepository) Upsert(ctx context.Context, s *summary.Snapshot) error {
	t, err := tableFor(s.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, latest_positive_summary, latest_actionable_summary,
                   raw_positive_bullets, raw_actionable_bullets, updated_at)
               VALUES ($1, $2, $3, $4, $5, NOW())
               ON CONFLICT (%[2]s) DO UPDATE SET
                   latest_positive_summary = EXCLUDED.latest_positive_summary,
                   latest_actionable_summary = EXCLUDED.latest_actionable_summary,
                   raw_positive_bullets = EXCLUDED.raw_positive_bullets,
                   raw_actionable_bullets = EXCLUDED.raw_actionable_bullets,
                   updated_at = EXCLUDED.updated_at
               RETURNING updated_at`, t.name, t.keyCol)

	err = getDB(ctx, r.db).QueryRowContext(ctx, query,
		s.Target,
		s.PositiveHTML(),
		s.ActionableHTML(),
		pq.StringArray(nonNil(s.Positive)),
		pq.StringArray(nonNil(s.Actionable)),
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting %s summary for %q: %w", s.Kind, s.Target, err)
	}
	return nil
}

func (r *PostgresSummaryRepository) List(ctx context.Context, kind summaryjob.Kind) ([]*summary.Snapshot, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s, raw_positive_bullets, raw_actionable_bullets,
               latest_positive_summary, latest_actionable_summary, updated_at
               FROM %s ORDER BY updated_at DESC`, t.keyCol, t.name)

	rows, err := getDB(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing %s summaries: %w", kind, err)
	}
	defer rows.Close()

	snapshots := make([]*summary.Snapshot, 0)
	for rows.Next() {
		s, err := r.scanSnapshot(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s summary: %w", kind, err)
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s summaries: %w", kind, err)
	}
	return snapshots, nil
}

func (r *PostgresSummaryRepository) scanSnapshot(kind summaryjob.Kind, row rowScanner) (*summary.Snapshot, error) {
	s := &summary.Snapshot{Kind: kind}
	var positive, actionable pq.StringArray
	if err := row.Scan(&s.Target, &positive, &actionable, &s.LegacyPositiveHTML, &s.LegacyActionableHTML, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Positive = []string(positive)
	s.Actionable = []string(actionable)
	if r.legacyHTML {
		s.ResolveLegacy()
	}
	return s, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
