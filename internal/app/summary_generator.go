package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"feedback_portal/internal/domain/feedback"
	"feedback_portal/internal/domain/llm"
	"feedback_portal/internal/domain/summary"
	"feedback_portal/internal/domain/summaryjob"
	idb "feedback_portal/internal/infra/database"
	"feedback_portal/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

const (
	ModeMock = "mock"
	ModeReal = "real"

	feedbackSeparator = "\n---\n"
)

const summaryFormatRules = "Your response MUST be a single valid JSON object with exactly two keys: " +
	"'positive_highlights' and 'actionable_growth'. Each key must hold a list of bullet-point strings. " +
	"Be comprehensive and cumulative: keep every theme present in the feedback, consolidate similar " +
	"points, and keep growth points constructive. Do not use markdown."

// SummaryGenerator rebuilds the snapshot of one target.
type SummaryGenerator struct {
	feedbackRepo feedback.Repository
	summaryRepo  summary.Repository
	backend      llm.Summarizer
	picker       Picker
	log          *logrus.Entry
}

type GeneratorOption func(*SummaryGenerator)

// WithPicker replaces the random source used in mock mode.
func WithPicker(p Picker) GeneratorOption {
	return func(g *SummaryGenerator) { g.picker = p }
}

// NewSummaryGenerator runs in real mode when backend is non-nil and in mock mode otherwise.
func NewSummaryGenerator(fr feedback.Repository, sr summary.Repository, backend llm.Summarizer, log *logrus.Entry, opts ...GeneratorOption) *SummaryGenerator {
	g := &SummaryGenerator{
		feedbackRepo: fr,
		summaryRepo:  sr,
		backend:      backend,
		picker:       newLockedRand(),
		log:          log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *SummaryGenerator) Mode() string {
	if g.backend == nil {
		return ModeMock
	}
	return ModeReal
}

// Regenerate builds and stores a new snapshot for key. Nothing is written
// when it returns an error.
func (g *SummaryGenerator) Regenerate(ctx context.Context, key summaryjob.Key) (*summary.Snapshot, error) {
	s, err := g.Build(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := g.Store(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Build computes the next snapshot for key without writing it. In real mode
// this is where the backend is called.
func (g *SummaryGenerator) Build(ctx context.Context, key summaryjob.Key) (*summary.Snapshot, error) {
	start := time.Now()
	mode := g.Mode()
	defer func() {
		metrics.GenerationSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if !key.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, key.Kind)
	}
	if mode == ModeMock {
		return g.mockSnapshot(ctx, key)
	}
	return g.realSnapshot(ctx, key)
}

// Store upserts s by its key.
func (g *SummaryGenerator) Store(ctx context.Context, s *summary.Snapshot) error {
	if err := g.summaryRepo.Upsert(ctx, s); err != nil {
		return fmt.Errorf("failed to store %s summary: %w", s.Key(), err)
	}
	return nil
}

// mockSnapshot grows the existing snapshot by at most one corpus bullet.
func (g *SummaryGenerator) mockSnapshot(ctx context.Context, key summaryjob.Key) (*summary.Snapshot, error) {
	var positive, actionable []string
	existing, err := g.summaryRepo.Get(ctx, key.Kind, key.Target)
	switch {
	case err == nil:
		if !existing.IsPlaceholder() {
			c := existing.Clone()
			positive, actionable = c.Positive, c.Actionable
		}
	case errors.Is(err, idb.ErrSnapshotNotFound):
	default:
		return nil, fmt.Errorf("failed to read existing %s summary: %w", key, err)
	}

	if len(positive) == 0 {
		positive = []string{pick(g.picker, mockPositives)}
	}
	if len(actionable) == 0 {
		actionable = []string{pick(g.picker, mockActionables)}
	}

	if g.picker.Intn(2) == 0 {
		if b := pick(g.picker, mockPositives); !slices.Contains(positive, b) {
			positive = append(positive, b)
		}
	} else {
		if b := pick(g.picker, mockActionables); !slices.Contains(actionable, b) {
			actionable = append(actionable, b)
		}
	}

	g.log.WithFields(logrus.Fields{"kind": key.Kind, "target": key.Target}).Debug("Mock summary generated")
	return &summary.Snapshot{Kind: key.Kind, Target: key.Target, Positive: positive, Actionable: actionable}, nil
}

// realSnapshot derives both lists from every eligible text for the target.
func (g *SummaryGenerator) realSnapshot(ctx context.Context, key summaryjob.Key) (*summary.Snapshot, error) {
	texts, err := g.feedbackRepo.ListEligibleTexts(ctx, key.Kind, key.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible feedback for %s: %w", key, err)
	}
	if len(texts) == 0 {
		g.log.WithFields(logrus.Fields{"kind": key.Kind, "target": key.Target}).Info("No eligible feedback, storing placeholder summary")
		return summary.NewPlaceholder(key.Kind, key.Target), nil
	}

	systemPrompt, userText := SummaryPrompts(key, texts)
	raw, err := g.backend.Summarize(ctx, systemPrompt, userText)
	if err != nil {
		return nil, fmt.Errorf("%s summarize %s: %w", g.backend.Name(), key, err)
	}

	positive, actionable, err := ParseBulletJSON(raw)
	if err != nil {
		return nil, err
	}
	return &summary.Snapshot{Kind: key.Kind, Target: key.Target, Positive: positive, Actionable: actionable}, nil
}

// SummaryPrompts builds the system prompt and user message for a target.
func SummaryPrompts(key summaryjob.Key, texts []string) (string, string) {
	combined := strings.Join(texts, feedbackSeparator)
	if key.Kind == summaryjob.KindCategory {
		system := "You are an operational analyst for a school's Student Council. Synthesize raw, anonymous " +
			"student feedback about one school category into a holistic report for council admins. " +
			"The category is: " + strings.ToUpper(key.Target) + ". " + summaryFormatRules
		return system, "Here is the collected feedback for " + key.Target + ":\n\n" + combined
	}
	system := "You are an educational analyst. Synthesize raw, anonymous student feedback into a holistic " +
		"report for the teacher. " + summaryFormatRules
	return system, "Here is the collected feedback:\n\n" + combined
}

// ParseBulletJSON reads positive_highlights and actionable_growth from raw.
// Missing keys give empty lists; anything that is not a JSON object fails.
func ParseBulletJSON(raw string) ([]string, []string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, nil, fmt.Errorf("%w: response is not a JSON object", llm.ErrMalformedResponse)
	}
	return normalizeBullets(obj["positive_highlights"]), normalizeBullets(obj["actionable_growth"]), nil
}

// normalizeBullets accepts a list or a single scalar, trims each entry and drops empties.
func normalizeBullets(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var single any
		if err := json.Unmarshal(raw, &single); err != nil || single == nil {
			return out
		}
		items = []any{single}
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		var s string
		if str, ok := item.(string); ok {
			s = str
		} else {
			s = fmt.Sprint(item)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
