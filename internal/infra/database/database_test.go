package database

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"feedback_portal/internal/domain/summaryjob"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableFor(t *testing.T) {
	tbl, err := tableFor(summaryjob.KindTeacher)
	require.NoError(t, err)
	assert.Equal(t, "teacher_summaries", tbl.name)
	assert.Equal(t, "teacher_id", tbl.keyCol)

	tbl, err = tableFor(summaryjob.KindCategory)
	require.NoError(t, err)
	assert.Equal(t, "category_summaries", tbl.name)

	_, err = tableFor("room")
	assert.ErrorIs(t, err, ErrUnknownSummaryKind)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrationsFS, files[0])
	require.NoError(t, err)
	schema := string(body)
	assert.True(t, strings.HasPrefix(schema, "-- +goose Up"))
	for _, table := range []string{"summary_job_queue", "teacher_summaries", "category_summaries", "feedback", "monthly_digests"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

type fakeSnapshotRow struct {
	target     string
	positive   []string
	actionable []string
	posHTML    string
	actHTML    string
	err        error
}

func (r fakeSnapshotRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.target
	*dest[1].(*pq.StringArray) = r.positive
	*dest[2].(*pq.StringArray) = r.actionable
	*dest[3].(*string) = r.posHTML
	*dest[4].(*string) = r.actHTML
	*dest[5].(*time.Time) = time.Unix(0, 0)
	return nil
}

func TestScanSnapshot_LegacyHTML(t *testing.T) {
	row := fakeSnapshotRow{
		target:  "food",
		posHTML: "<ul><li>Pasta is good</li></ul>",
		actHTML: "<ul><li>More vegetables</li></ul>",
	}

	plain := NewPostgresSummaryRepository(nil, false)
	s, err := plain.scanSnapshot(summaryjob.KindCategory, row)
	require.NoError(t, err)
	assert.Empty(t, s.Positive)

	legacy := NewPostgresSummaryRepository(nil, true)
	s, err = legacy.scanSnapshot(summaryjob.KindCategory, row)
	require.NoError(t, err)
	assert.Equal(t, "food", s.Target)
	assert.Equal(t, []string{"Pasta is good"}, s.Positive)
	assert.Equal(t, []string{"More vegetables"}, s.Actionable)

	row.positive = []string{"From the list"}
	s, err = legacy.scanSnapshot(summaryjob.KindCategory, row)
	require.NoError(t, err)
	assert.Equal(t, []string{"From the list"}, s.Positive)
}

func TestScanSnapshot_Error(t *testing.T) {
	r := NewPostgresSummaryRepository(nil, false)
	_, err := r.scanSnapshot(summaryjob.KindTeacher, fakeSnapshotRow{err: errors.New("boom")})
	assert.Error(t, err)
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, []string{}, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}
