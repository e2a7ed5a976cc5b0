package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedback_portal/internal/domain/digest"
	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/llm"
	"feedback_portal/internal/domain/summary"
	idb "feedback_portal/internal/infra/database"

	"github.com/sirupsen/logrus"
)

const digestPrompt = "You are an analyst for a school's Student Council. Summarize one month of anonymous " +
	"student feedback across all teachers and categories into a school-wide digest. " + summaryFormatRules

// DigestService builds one school-wide digest per calendar month.
type DigestService struct {
	feedbackRepo feedback.Repository
	digestRepo   digest.Repository
	backend      llm.Summarizer
	picker       Picker
	log          *logrus.Entry
}

// NewDigestService uses backend when non-nil and the mock corpus otherwise.
// A nil picker means a time-seeded random source.
func NewDigestService(fr feedback.Repository, dr digest.Repository, backend llm.Summarizer, picker Picker, log *logrus.Entry) *DigestService {
	if picker == nil {
		picker = newLockedRand()
	}
	return &DigestService{feedbackRepo: fr, digestRepo: dr, backend: backend, picker: picker, log: log}
}

// RunIfMonthEnd generates the digest for now's month when now is the last day
// of the month and no digest exists yet. It reports whether one was created.
func (s *DigestService) RunIfMonthEnd(ctx context.Context, now time.Time) (bool, error) {
	if !digest.IsLastDayOfMonth(now) {
		return false, nil
	}
	key := digest.MonthKey(now)
	if _, err := s.digestRepo.Get(ctx, key); err == nil {
		return false, nil
	} else if !errors.Is(err, idb.ErrDigestNotFound) {
		return false, fmt.Errorf("failed to check digest %s: %w", key, err)
	}

	if _, err := s.Generate(ctx, now); err != nil {
		if errors.Is(err, idb.ErrDuplicateDigest) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Generate builds and stores the digest for the month containing month.
func (s *DigestService) Generate(ctx context.Context, month time.Time) (*digest.Digest, error) {
	from, to := digest.MonthBounds(month)
	items, err := s.feedbackRepo.ListEligibleCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback for digest: %w", err)
	}

	d := &digest.Digest{
		MonthKey:      digest.MonthKey(month),
		StartDate:     from,
		EndDate:       to.AddDate(0, 0, -1),
		FeedbackCount: len(items),
	}

	switch {
	case len(items) == 0:
		d.Positive = []string{summary.PlaceholderBullet}
		d.Actionable = []string{summary.PlaceholderBullet}
	case s.backend == nil:
		d.Positive = []string{pick(s.picker, mockPositives)}
		d.Actionable = []string{pick(s.picker, mockActionables)}
	default:
		texts := make([]string, 0, len(items))
		for _, f := range items {
			texts = append(texts, f.Text)
		}
		userText := fmt.Sprintf("Here is the feedback collected in %s:\n\n%s", d.MonthKey, strings.Join(texts, feedbackSeparator))
		raw, err := s.backend.Summarize(ctx, digestPrompt, userText)
		if err != nil {
			return nil, fmt.Errorf("%s digest %s: %w", s.backend.Name(), d.MonthKey, err)
		}
		d.Positive, d.Actionable, err = ParseBulletJSON(raw)
		if err != nil {
			return nil, err
		}
	}

	if err := s.digestRepo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"month": d.MonthKey, "feedback_count": d.FeedbackCount}).Info("Monthly digest generated")
	return d, nil
}

func (s *DigestService) Latest(ctx context.Context) (*digest.Digest, error) {
	digests, err := s.digestRepo.ListRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(digests) == 0 {
		return nil, idb.ErrDigestNotFound
	}
	return digests[0], nil
}
