package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/teacher"
	"feedback_portal/internal/infra/ai"
	idb "feedback_portal/internal/infra/database"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var ErrInvalidSubmission = errors.New("invalid feedback submission")
var ErrInvalidTarget = errors.New("feedback target does not exist or is inactive")
var ErrAlreadyInStatus = errors.New("feedback already has the requested status")

// ToxicityScreen classifies submitted text.
type ToxicityScreen interface {
	Screen(ctx context.Context, text string) ai.Verdict
}

// EscalationNotifier tells staff about a submission held for review.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, f *feedback.Feedback) error
}

// SubmitRequest is a student submission.
type SubmitRequest struct {
	Category  string `validate:"required,max=50"`
	TeacherID int64  `validate:"required_if=Category teacher"`
	Text      string `validate:"required,min=3,max=5000"`
	Clarity   int    `validate:"omitempty,min=1,max=5"`
	Pacing    int    `validate:"omitempty,min=1,max=5"`
	Resources int    `validate:"omitempty,min=1,max=5"`
	Support   int    `validate:"omitempty,min=1,max=5"`
}

// FeedbackService owns every moderation transition and schedules the
// matching summary regeneration in the same transaction.
type FeedbackService struct {
	feedbackRepo feedback.Repository
	teacherRepo  teacher.Repository
	queue        *SummaryQueue
	screen       ToxicityScreen
	notifier     EscalationNotifier
	tx           Transactor
	validate     *validator.Validate
	log          *logrus.Entry
}

func NewFeedbackService(
	fr feedback.Repository,
	tr teacher.Repository,
	queue *SummaryQueue,
	screen ToxicityScreen,
	notifier EscalationNotifier,
	tx Transactor,
	log *logrus.Entry,
) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: fr,
		teacherRepo:  tr,
		queue:        queue,
		screen:       screen,
		notifier:     notifier,
		tx:           tx,
		validate:     validator.New(),
		log:          log,
	}
}

// Submit screens and stores a submission. Clean text is approved and queued
// for summarization; flagged text is escalated and staff are alerted.
func (s *FeedbackService) Submit(ctx context.Context, req SubmitRequest) (*feedback.Feedback, error) {
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	f := &feedback.Feedback{
		Category: req.Category,
		Text:     req.Text,
		Ratings: feedback.Ratings{
			Clarity:   optionalRating(req.Clarity),
			Pacing:    optionalRating(req.Pacing),
			Resources: optionalRating(req.Resources),
			Support:   optionalRating(req.Support),
		},
	}
	if req.Category == feedback.CategoryTeacher {
		t, err := s.teacherRepo.GetByID(ctx, req.TeacherID)
		if err != nil {
			if errors.Is(err, idb.ErrTeacherNotFound) {
				return nil, ErrInvalidTarget
			}
			return nil, fmt.Errorf("failed to look up teacher: %w", err)
		}
		if !t.IsActive {
			return nil, ErrInvalidTarget
		}
		f.TeacherID = sql.NullInt64{Int64: t.ID, Valid: true}
	}

	verdict := s.screen.Screen(ctx, f.Text)
	f.ToxicityScore = verdict.Score
	f.IsInappropriate = verdict.IsInappropriate
	if verdict.IsInappropriate {
		f.Status = feedback.StatusEscalated
	} else {
		f.Status = feedback.StatusApproved
		f.IsSummaryApproved = true
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.feedbackRepo.Create(ctx, f); err != nil {
			return err
		}
		if err := s.recordChange(ctx, f.ID, feedback.StatusNew, f.Status, "system", "automatic screening"); err != nil {
			return err
		}
		if f.Eligible() {
			if _, err := s.queue.EnqueueFor(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	logEntry := s.log.WithFields(logrus.Fields{"feedback_id": f.ID, "status": f.Status, "toxicity_score": f.ToxicityScore})
	if f.Status == feedback.StatusEscalated {
		logEntry.Warn("Feedback escalated for review")
		if s.notifier != nil {
			if err := s.notifier.NotifyEscalation(ctx, f); err != nil {
				logEntry.WithError(err).Error("Failed to send escalation alert")
			}
		}
	} else {
		logEntry.Info("Feedback accepted")
	}
	return f, nil
}

// Approve makes an item eligible for summaries. It also re-approves retracted items.
func (s *FeedbackService) Approve(ctx context.Context, id int64, actor string) (*feedback.Feedback, error) {
	return s.transition(ctx, id, actor, "approved by staff", func(f *feedback.Feedback) error {
		if f.Status == feedback.StatusApproved && f.Eligible() {
			return ErrAlreadyInStatus
		}
		f.Status = feedback.StatusApproved
		f.IsSummaryApproved = true
		f.IsInappropriate = false
		return nil
	})
}

// Retract removes an item from summaries without deleting it.
func (s *FeedbackService) Retract(ctx context.Context, id int64, actor string) (*feedback.Feedback, error) {
	return s.transition(ctx, id, actor, "retracted by staff", func(f *feedback.Feedback) error {
		if f.Status == feedback.StatusRetracted {
			return ErrAlreadyInStatus
		}
		f.Status = feedback.StatusRetracted
		f.IsSummaryApproved = false
		return nil
	})
}

func (s *FeedbackService) transition(ctx context.Context, id int64, actor, reason string, apply func(f *feedback.Feedback) error) (*feedback.Feedback, error) {
	var f *feedback.Feedback
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		f, err = s.feedbackRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		old := f.Status
		if err := apply(f); err != nil {
			return err
		}
		if err := s.feedbackRepo.Update(ctx, f); err != nil {
			return err
		}
		if err := s.recordChange(ctx, f.ID, old, f.Status, actor, reason); err != nil {
			return err
		}
		_, err = s.queue.EnqueueFor(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"feedback_id": id, "status": f.Status, "actor": actor}).Info("Feedback status changed")
	return f, nil
}

// Delete removes an item and schedules a regeneration of its target that no
// longer references it.
func (s *FeedbackService) Delete(ctx context.Context, id int64, actor string) (*feedback.Feedback, error) {
	var f *feedback.Feedback
	var replacementID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		f, err = s.feedbackRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		replacementID, err = s.queue.ReplaceForDeletedFeedback(ctx, f.ID, f.SummaryKey())
		if err != nil {
			return err
		}
		return s.feedbackRepo.Delete(ctx, f.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"feedback_id": id, "replacement_job_id": replacementID, "actor": actor}).Info("Feedback deleted")
	return f, nil
}

func (s *FeedbackService) ListEscalated(ctx context.Context) ([]*feedback.Feedback, error) {
	return s.feedbackRepo.ListByStatus(ctx, feedback.StatusEscalated)
}

func (s *FeedbackService) recordChange(ctx context.Context, id int64, from, to feedback.Status, actor, reason string) error {
	return s.feedbackRepo.RecordStatusChange(ctx, &feedback.StatusChange{
		FeedbackID: id,
		OldStatus:  from,
		NewStatus:  to,
		ChangedBy:  actor,
		Reason:     reason,
	})
}

func optionalRating(v int) sql.NullInt32 {
	if v == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(v), Valid: true}
}
