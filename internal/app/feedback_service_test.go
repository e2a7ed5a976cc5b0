package app

import (
	"context"
	"errors"
	"testing"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summaryjob"
	"feedback_portal/internal/domain/teacher"
	idb "feedback_portal/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackFixture struct {
	feedback *memFeedbackRepo
	teachers *memTeacherRepo
	jobs     *memJobRepo
	notifier *recordingNotifier
	tx       *passthroughTx
	svc      *FeedbackService
}

func newFeedbackFixture() *feedbackFixture {
	f := &feedbackFixture{
		feedback: newMemFeedbackRepo(),
		teachers: newMemTeacherRepo(),
		jobs:     newMemJobRepo(),
		notifier: &recordingNotifier{},
		tx:       &passthroughTx{},
	}
	queue := NewSummaryQueue(f.jobs, testLog())
	f.svc = NewFeedbackService(f.feedback, f.teachers, queue, keywordScreen{}, f.notifier, f.tx, testLog())
	return f
}

func (f *feedbackFixture) addTeacher(t *testing.T, active bool) int64 {
	t.Helper()
	tc := &teacher.Teacher{FirstName: "Ms.", IsActive: active}
	require.NoError(t, f.teachers.Create(context.Background(), tc))
	return tc.ID
}

func TestFeedbackService_SubmitCleanTeacherFeedback(t *testing.T) {
	f := newFeedbackFixture()
	tid := f.addTeacher(t, true)

	fb, err := f.svc.Submit(context.Background(), SubmitRequest{
		Category:  "Teacher",
		TeacherID: tid,
		Text:      "  Great explanations.  ",
		Clarity:   5,
	})
	require.NoError(t, err)

	assert.Equal(t, feedback.StatusApproved, fb.Status)
	assert.True(t, fb.Eligible())
	assert.Equal(t, "Great explanations.", fb.Text)
	assert.True(t, fb.Ratings.Clarity.Valid)
	assert.False(t, fb.Ratings.Pacing.Valid)

	jobs := f.jobs.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, fb.SummaryKey(), jobs[0].Key())
	assert.Equal(t, summaryjob.KindTeacher, jobs[0].Kind)
	assert.EqualValues(t, fb.ID, jobs[0].FeedbackID.Int64)

	require.Len(t, f.feedback.history, 1)
	assert.Equal(t, feedback.StatusNew, f.feedback.history[0].OldStatus)
	assert.Empty(t, f.notifier.notified)
}

func TestFeedbackService_SubmitFlaggedIsEscalated(t *testing.T) {
	f := newFeedbackFixture()

	fb, err := f.svc.Submit(context.Background(), SubmitRequest{
		Category: "other",
		Text:     "This teacher is a horrible bully and should be fired!",
	})
	require.NoError(t, err)

	assert.Equal(t, feedback.StatusEscalated, fb.Status)
	assert.True(t, fb.IsInappropriate)
	assert.False(t, fb.Eligible())
	assert.Empty(t, f.jobs.all())
	assert.Equal(t, []int64{fb.ID}, f.notifier.notified)
}

func TestFeedbackService_NotifierFailureDoesNotFailSubmit(t *testing.T) {
	f := newFeedbackFixture()
	f.notifier.err = errors.New("telegram down")

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Category: "other", Text: "you bully"})
	assert.NoError(t, err)
}

func TestFeedbackService_SubmitValidation(t *testing.T) {
	f := newFeedbackFixture()
	inactive := f.addTeacher(t, false)

	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr error
	}{
		{"missing text", SubmitRequest{Category: "food"}, ErrInvalidSubmission},
		{"text too short", SubmitRequest{Category: "food", Text: "ok"}, ErrInvalidSubmission},
		{"teacher without id", SubmitRequest{Category: "teacher", Text: "fine class"}, ErrInvalidSubmission},
		{"rating out of range", SubmitRequest{Category: "food", Text: "tasty pasta", Pacing: 6}, ErrInvalidSubmission},
		{"unknown teacher", SubmitRequest{Category: "teacher", TeacherID: 999, Text: "fine class"}, ErrInvalidTarget},
		{"inactive teacher", SubmitRequest{Category: "teacher", TeacherID: inactive, Text: "fine class"}, ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.jobs.all())
}

func TestFeedbackService_ApproveEscalated(t *testing.T) {
	f := newFeedbackFixture()
	fb, err := f.svc.Submit(context.Background(), SubmitRequest{Category: "policy", Text: "the bully policy is weak"})
	require.NoError(t, err)
	require.Equal(t, feedback.StatusEscalated, fb.Status)

	approved, err := f.svc.Approve(context.Background(), fb.ID, "admin:1")
	require.NoError(t, err)

	assert.Equal(t, feedback.StatusApproved, approved.Status)
	assert.True(t, approved.Eligible())
	jobs := f.jobs.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, summaryjob.Key{Kind: summaryjob.KindCategory, Target: "policy"}, jobs[0].Key())

	last := f.feedback.history[len(f.feedback.history)-1]
	assert.Equal(t, feedback.StatusEscalated, last.OldStatus)
	assert.Equal(t, feedback.StatusApproved, last.NewStatus)
	assert.Equal(t, "admin:1", last.ChangedBy)

	_, err = f.svc.Approve(context.Background(), fb.ID, "admin:1")
	assert.ErrorIs(t, err, ErrAlreadyInStatus)
}

func TestFeedbackService_RetractQueuesRegeneration(t *testing.T) {
	f := newFeedbackFixture()
	fb, err := f.svc.Submit(context.Background(), SubmitRequest{Category: "food", Text: "pasta was great"})
	require.NoError(t, err)

	retracted, err := f.svc.Retract(context.Background(), fb.ID, "admin:1")
	require.NoError(t, err)

	assert.Equal(t, feedback.StatusRetracted, retracted.Status)
	assert.False(t, retracted.Eligible())
	assert.Len(t, f.jobs.all(), 2)

	_, err = f.svc.Retract(context.Background(), fb.ID, "admin:1")
	assert.ErrorIs(t, err, ErrAlreadyInStatus)

	texts, err := f.feedback.ListEligibleTexts(context.Background(), summaryjob.KindCategory, "food")
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestFeedbackService_DeleteLeavesOneUnreferencedPendingJob(t *testing.T) {
	f := newFeedbackFixture()
	fb, err := f.svc.Submit(context.Background(), SubmitRequest{Category: "food", Text: "pasta was great"})
	require.NoError(t, err)
	require.Len(t, f.jobs.all(), 1)

	_, err = f.svc.Delete(context.Background(), fb.ID, "admin:1")
	require.NoError(t, err)

	_, err = f.feedback.GetByID(context.Background(), fb.ID)
	assert.ErrorIs(t, err, idb.ErrFeedbackNotFound)

	jobs := f.jobs.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, summaryjob.StatusPending, jobs[0].Status)
	assert.False(t, jobs[0].FeedbackID.Valid)
	assert.Equal(t, summaryjob.Key{Kind: summaryjob.KindCategory, Target: "food"}, jobs[0].Key())
}

func TestFeedbackService_DeleteMissing(t *testing.T) {
	f := newFeedbackFixture()
	_, err := f.svc.Delete(context.Background(), 404, "admin:1")
	assert.ErrorIs(t, err, idb.ErrFeedbackNotFound)
	assert.Empty(t, f.jobs.all())
}
