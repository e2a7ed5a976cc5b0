package feedback

import (
	"context"
	"time"

	"feedback_portal/internal/domain/summaryjob"
)

// Repository defines persistence for feedback and its moderation history.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	GetByID(ctx context.Context, id int64) (*Feedback, error)
	Update(ctx context.Context, f *Feedback) error
	Delete(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status Status) ([]*Feedback, error)
	// ListEligibleTexts returns the texts of every eligible item for the target, oldest first.
	ListEligibleTexts(ctx context.Context, kind summaryjob.Kind, target string) ([]string, error)
	// ListEligibleCreatedBetween returns eligible items created in [from, to).
	ListEligibleCreatedBetween(ctx context.Context, from, to time.Time) ([]*Feedback, error)
	Count(ctx context.Context) (int, error)
	RecordStatusChange(ctx context.Context, change *StatusChange) error
}
