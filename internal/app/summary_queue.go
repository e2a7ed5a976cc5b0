package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summaryjob"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var ErrInvalidJob = errors.New("invalid summary job")

// Transactor runs fn in one database transaction; repositories called with
// the ctx passed to fn join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type enqueueRequest struct {
	Kind   string `validate:"required,oneof=teacher category"`
	Target string `validate:"required,max=100"`
}

// SummaryQueue is the single entry point for scheduling summary regeneration.
type SummaryQueue struct {
	jobRepo  summaryjob.Repository
	validate *validator.Validate
	log      *logrus.Entry
}

func NewSummaryQueue(jobRepo summaryjob.Repository, log *logrus.Entry) *SummaryQueue {
	return &SummaryQueue{
		jobRepo:  jobRepo,
		validate: validator.New(),
		log:      log,
	}
}

// Enqueue creates a pending job for (kind, target). feedbackID may be nil.
func (q *SummaryQueue) Enqueue(ctx context.Context, kind summaryjob.Kind, target string, feedbackID *int64) (int64, error) {
	target = strings.TrimSpace(target)
	if err := q.validate.Struct(enqueueRequest{Kind: string(kind), Target: target}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	job := &summaryjob.Job{Kind: kind, Target: target, Status: summaryjob.StatusPending}
	if feedbackID != nil {
		job.FeedbackID = sql.NullInt64{Int64: *feedbackID, Valid: true}
	}
	if err := q.jobRepo.Create(ctx, job); err != nil {
		return 0, fmt.Errorf("failed to enqueue %s job: %w", job.Key(), err)
	}

	q.log.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"kind":        kind,
		"target":      target,
		"feedback_id": job.FeedbackID.Int64,
	}).Debug("Summary job enqueued")
	return job.ID, nil
}

// Job returns the current state of one queued job.
func (q *SummaryQueue) Job(ctx context.Context, id int64) (*summaryjob.Job, error) {
	job, err := q.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary job %d: %w", id, err)
	}
	return job, nil
}

// EnqueueFor schedules regeneration of the target f contributes to.
func (q *SummaryQueue) EnqueueFor(ctx context.Context, f *feedback.Feedback) (int64, error) {
	key := f.SummaryKey()
	id := f.ID
	return q.Enqueue(ctx, key.Kind, key.Target, &id)
}

// ReplaceForDeletedFeedback removes every job that references feedbackID and
// creates one pending job for key with no feedback reference. Call it inside
// the transaction that deletes the feedback row.
func (q *SummaryQueue) ReplaceForDeletedFeedback(ctx context.Context, feedbackID int64, key summaryjob.Key) (int64, error) {
	removed, err := q.jobRepo.DeleteByFeedbackID(ctx, feedbackID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach jobs from feedback %d: %w", feedbackID, err)
	}
	q.log.WithFields(logrus.Fields{"feedback_id": feedbackID, "removed_jobs": removed}).Debug("Detached summary jobs from deleted feedback")

	return q.Enqueue(ctx, key.Kind, key.Target, nil)
}
