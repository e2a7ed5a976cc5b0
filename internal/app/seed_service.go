package app

import (
	"context"
	"fmt"

	"feedback_portal/internal/domain/teacher"

	"github.com/sirupsen/logrus"
)

type demoTeacher struct {
	first, last, subject string
}

var demoTeachers = []demoTeacher{
	{"Mr.", "Harper", "Mathematics"},
	{"Ms.", "Williams", "English"},
	{"Dr.", "Okafor", "Science"},
}

// demoFeedback rows refer to demoTeachers by index; -1 means a category item.
var demoFeedback = []struct {
	teacher  int
	category string
	text     string
}{
	{0, "teacher", "Mr. Harper is a great teacher! His explanations are very clear."},
	{-1, "food", "The cafeteria food, especially the pasta, has been excellent this week."},
	{-1, "other", "This teacher is a horrible bully and should be fired! I hate their lessons."},
	{-1, "policy", "The new uniform policy is unclear. We need more examples of what is allowed."},
	{0, "teacher", "This class is a bit too fast and the homework is hard."},
}

// SeedService fills an empty database with demo data. Feedback goes through
// the normal submission path so it is screened and queued.
type SeedService struct {
	teacherRepo teacher.Repository
	feedbackSvc *FeedbackService
	log         *logrus.Entry
}

func NewSeedService(tr teacher.Repository, fs *FeedbackService, log *logrus.Entry) *SeedService {
	return &SeedService{teacherRepo: tr, feedbackSvc: fs, log: log}
}

// SeedIfEmpty reports whether it seeded anything.
func (s *SeedService) SeedIfEmpty(ctx context.Context) (bool, error) {
	n, err := s.teacherRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.log.Debug("Database already has teachers, skipping seed")
		return false, nil
	}

	ids := make([]int64, len(demoTeachers))
	for i, dt := range demoTeachers {
		t := &teacher.Teacher{FirstName: dt.first, IsActive: true}
		t.LastName.String, t.LastName.Valid = dt.last, true
		t.Subject.String, t.Subject.Valid = dt.subject, true
		if err := s.teacherRepo.Create(ctx, t); err != nil {
			return false, fmt.Errorf("failed to seed teacher %s: %w", dt.last, err)
		}
		ids[i] = t.ID
	}

	for _, df := range demoFeedback {
		req := SubmitRequest{Category: df.category, Text: df.text}
		if df.teacher >= 0 {
			req.TeacherID = ids[df.teacher]
		}
		if _, err := s.feedbackSvc.Submit(ctx, req); err != nil {
			return false, fmt.Errorf("failed to seed feedback: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"teachers": len(demoTeachers), "feedback": len(demoFeedback)}).Info("Seeded demo data")
	return true, nil
}
