package summaryjob

import (
	"context"
	"time"
)

// Repository defines persistence for the summary job queue.
type Repository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	// ListByStatus returns jobs in insertion order. limit <= 0 means no limit.
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Job, error)
	UpdateStatus(ctx context.Context, ids []int64, status Status) error
	// DeleteByFeedbackID removes every job that references the feedback row.
	DeleteByFeedbackID(ctx context.Context, feedbackID int64) (int64, error)
	// RequeueStale moves processing jobs last touched before cutoff back to pending.
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
