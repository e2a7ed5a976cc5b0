package app

import (
	"context"
	"testing"
	"time"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summary"
	idb "feedback_portal/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedAt(category, text string, at time.Time) *feedback.Feedback {
	return &feedback.Feedback{
		Category:          category,
		Text:              text,
		Status:            feedback.StatusApproved,
		IsSummaryApproved: true,
		CreatedAt:         at,
	}
}

func TestDigestService_RunIfMonthEnd(t *testing.T) {
	fr := newMemFeedbackRepo()
	dr := &memDigestRepo{}
	svc := NewDigestService(fr, dr, nil, fixedPicker(1), testLog())
	fr.add(approvedAt("food", "pasta", time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)))

	created, err := svc.RunIfMonthEnd(context.Background(), time.Date(2026, 9, 29, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, created)

	lastDay := time.Date(2026, 9, 30, 18, 0, 0, 0, time.UTC)
	created, err = svc.RunIfMonthEnd(context.Background(), lastDay)
	require.NoError(t, err)
	assert.True(t, created)

	d, err := dr.Get(context.Background(), "2026-09")
	require.NoError(t, err)
	assert.Equal(t, 1, d.FeedbackCount)
	assert.Equal(t, []string{mockPositives[1]}, d.Positive)
	assert.Equal(t, []string{mockActionables[1]}, d.Actionable)
	assert.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), d.EndDate)

	created, err = svc.RunIfMonthEnd(context.Background(), lastDay)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDigestService_HourlyChecksCreateOneDigest(t *testing.T) {
	fr := newMemFeedbackRepo()
	dr := &memDigestRepo{}
	svc := NewDigestService(fr, dr, nil, fixedPicker(0), testLog())
	fr.add(approvedAt("food", "more vegetables", time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)))

	created := 0
	for hour := range 24 {
		ok, err := svc.RunIfMonthEnd(context.Background(), time.Date(2026, 10, 31, hour, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		if ok {
			created++
		}
	}

	assert.Equal(t, 1, created)
	d, err := dr.Get(context.Background(), "2026-10")
	require.NoError(t, err)
	assert.Equal(t, 1, d.FeedbackCount)
}

func TestDigestService_GenerateWithBackend(t *testing.T) {
	fr := newMemFeedbackRepo()
	fr.add(approvedAt("food", "pasta", time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)))
	outside := approvedAt("food", "last month", time.Date(2026, 9, 30, 23, 0, 0, 0, time.UTC))
	fr.add(outside)
	hidden := approvedAt("food", "hidden", time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC))
	hidden.IsSummaryApproved = false
	fr.add(hidden)

	backend := &stubSummarizer{reply: `{"positive_highlights":["Food"],"actionable_growth":["More options"]}`}
	svc := NewDigestService(fr, &memDigestRepo{}, backend, nil, testLog())

	d, err := svc.Generate(context.Background(), time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-10", d.MonthKey)
	assert.Equal(t, 1, d.FeedbackCount)
	assert.Equal(t, []string{"Food"}, d.Positive)
	require.Len(t, backend.users, 1)
	assert.Contains(t, backend.users[0], "pasta")
	assert.NotContains(t, backend.users[0], "last month")
	assert.NotContains(t, backend.users[0], "hidden")
}

func TestDigestService_EmptyMonthUsesPlaceholder(t *testing.T) {
	backend := &stubSummarizer{}
	svc := NewDigestService(newMemFeedbackRepo(), &memDigestRepo{}, backend, nil, testLog())

	d, err := svc.Generate(context.Background(), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{summary.PlaceholderBullet}, d.Positive)
	assert.Equal(t, []string{summary.PlaceholderBullet}, d.Actionable)
	assert.Zero(t, backend.calls)
}

func TestDigestService_Latest(t *testing.T) {
	dr := &memDigestRepo{}
	svc := NewDigestService(newMemFeedbackRepo(), dr, nil, nil, testLog())

	_, err := svc.Latest(context.Background())
	assert.ErrorIs(t, err, idb.ErrDigestNotFound)

	for _, m := range []time.Month{time.March, time.May, time.April} {
		_, err := svc.Generate(context.Background(), time.Date(2026, m, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}
	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-05", latest.MonthKey)
}
