package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"feedback_portal/internal/domain/digest"
	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/summary"
	"feedback_portal/internal/domain/summaryjob"
	"feedback_portal/internal/domain/teacher"
	idb "feedback_portal/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrTeacherAlreadyInactive = fmt.Errorf("teacher is already inactive")

const triageScoreCeiling = 0.7

// TriageDecision is the recommendation for one escalated item.
type TriageDecision struct {
	Feedback *feedback.Feedback
	Approve  bool
	Applied  bool
}

// AdminService is the staff-facing surface. Every method checks the caller.
type AdminService struct {
	feedbackSvc     *FeedbackService
	queue           *SummaryQueue
	digestSvc       *DigestService
	jobRepo         summaryjob.Repository
	summaryRepo     summary.Repository
	teacherRepo     teacher.Repository
	worker          WorkerController
	adminTelegramID int64
}

func NewAdminService(
	feedbackSvc *FeedbackService,
	queue *SummaryQueue,
	digestSvc *DigestService,
	jobRepo summaryjob.Repository,
	summaryRepo summary.Repository,
	teacherRepo teacher.Repository,
	worker WorkerController,
	adminID int64,
) *AdminService {
	return &AdminService{
		feedbackSvc:     feedbackSvc,
		queue:           queue,
		digestSvc:       digestSvc,
		jobRepo:         jobRepo,
		summaryRepo:     summaryRepo,
		teacherRepo:     teacherRepo,
		worker:          worker,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingAdminID int64) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

func actorName(adminID int64) string {
	return "admin:" + strconv.FormatInt(adminID, 10)
}

func (s *AdminService) ApproveFeedback(ctx context.Context, performingAdminID, feedbackID int64) (*feedback.Feedback, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.feedbackSvc.Approve(ctx, feedbackID, actorName(performingAdminID))
}

func (s *AdminService) RetractFeedback(ctx context.Context, performingAdminID, feedbackID int64) (*feedback.Feedback, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.feedbackSvc.Retract(ctx, feedbackID, actorName(performingAdminID))
}

func (s *AdminService) DeleteFeedback(ctx context.Context, performingAdminID, feedbackID int64) (*feedback.Feedback, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.feedbackSvc.Delete(ctx, feedbackID, actorName(performingAdminID))
}

// GetSnapshot returns the latest snapshot, or found=false when none was generated yet.
func (s *AdminService) GetSnapshot(ctx context.Context, performingAdminID int64, kind summaryjob.Kind, target string) (snap *summary.Snapshot, found bool, err error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, false, err
	}
	snap, err = s.summaryRepo.Get(ctx, kind, target)
	if err != nil {
		if errors.Is(err, idb.ErrSnapshotNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return snap, true, nil
}

func (s *AdminService) ListJobs(ctx context.Context, performingAdminID int64, status summaryjob.Status, limit int) ([]*summaryjob.Job, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.jobRepo.ListByStatus(ctx, status, limit)
}

func (s *AdminService) JobCounts(ctx context.Context, performingAdminID int64) (map[summaryjob.Status]int, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.jobRepo.CountByStatus(ctx)
}

// EnqueueManual schedules a regeneration that is not tied to any feedback item.
func (s *AdminService) EnqueueManual(ctx context.Context, performingAdminID int64, kind summaryjob.Kind, target string) (int64, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return 0, err
	}
	return s.queue.Enqueue(ctx, kind, target, nil)
}

// Triage recommends approving escalated items that were not flagged and
// scored below the ceiling. With apply set the recommendations are executed.
func (s *AdminService) Triage(ctx context.Context, performingAdminID int64, apply bool) ([]TriageDecision, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	escalated, err := s.feedbackSvc.ListEscalated(ctx)
	if err != nil {
		return nil, err
	}

	decisions := make([]TriageDecision, 0, len(escalated))
	for _, f := range escalated {
		d := TriageDecision{
			Feedback: f,
			Approve:  !f.IsInappropriate && f.ToxicityScore < triageScoreCeiling,
		}
		if d.Approve && apply {
			if _, err := s.feedbackSvc.Approve(ctx, f.ID, "triage"); err != nil {
				return decisions, fmt.Errorf("failed to approve feedback %d during triage: %w", f.ID, err)
			}
			d.Applied = true
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func (s *AdminService) WorkerState(performingAdminID int64) (WorkerState, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return "", err
	}
	return s.worker.State(), nil
}

// RestartWorker stops the worker, waits for its current iteration and starts it again.
func (s *AdminService) RestartWorker(ctx context.Context, performingAdminID int64) (bool, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return false, err
	}
	return s.worker.Restart(ctx), nil
}

func (s *AdminService) LatestDigest(ctx context.Context, performingAdminID int64) (*digest.Digest, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.digestSvc.Latest(ctx)
}

// AddTeacher registers a teacher students can leave feedback about.
func (s *AdminService) AddTeacher(ctx context.Context, performingAdminID int64, firstName, lastName, subject string) (*teacher.Teacher, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	t := &teacher.Teacher{
		FirstName: firstName,
		LastName:  sql.NullString{String: lastName, Valid: lastName != ""},
		Subject:   sql.NullString{String: subject, Valid: subject != ""},
		IsActive:  true,
	}
	if err := s.teacherRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create teacher in repository: %w", err)
	}
	return t, nil
}

// RemoveTeacher deactivates a teacher. Existing feedback and summaries are kept.
func (s *AdminService) RemoveTeacher(ctx context.Context, performingAdminID, teacherID int64) (*teacher.Teacher, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	t, err := s.teacherRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return t, ErrTeacherAlreadyInactive
	}
	t.IsActive = false
	if err := s.teacherRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update teacher to inactive in repository: %w", err)
	}
	return t, nil
}

func (s *AdminService) ListTeachers(ctx context.Context, performingAdminID int64, includeInactive bool) ([]*teacher.Teacher, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if includeInactive {
		return s.teacherRepo.ListAll(ctx)
	}
	return s.teacherRepo.ListActive(ctx)
}
