package app

import (
	"context"
	"testing"

	"feedback_portal/internal/domain/feedback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedService_SeedIfEmpty(t *testing.T) {
	f := newFeedbackFixture()
	seed := NewSeedService(f.teachers, f.svc, testLog())

	seeded, err := seed.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	n, err := f.teachers.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(demoTeachers), n)

	escalated, err := f.feedback.ListByStatus(context.Background(), feedback.StatusEscalated)
	require.NoError(t, err)
	require.Len(t, escalated, 1)
	assert.Equal(t, "other", escalated[0].Category)
	// Every clean item queued one job.
	assert.Len(t, f.jobs.all(), len(demoFeedback)-1)

	seeded, err = seed.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}
