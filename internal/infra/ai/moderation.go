package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"feedback_portal/internal/domain/llm"

	"github.com/sirupsen/logrus"
)

const (
	keywordFlagScore = 0.95
	flaggedScoreMin  = 0.8
	failClosedScore  = 1.0
)

var toxicityPatterns = compilePatterns(
	`\bfuck\b`, `\bshit\b`, `\bbitch\b`, `\bass\b`, `\bdamn\b`, `\bidiot\b`, `\bstupid\b`,
	`\bterrible teacher\b`, `\bhorrible person\b`, `\bworst teacher\b`,
	`\bbully\b`, `\bbullying\b`, `\bthreat\b`, `\bkill\b`,
)

const moderationPrompt = "You are a strict content moderator for a school feedback system. " +
	"Protect teachers from personal insults, profanity and abusive language. " +
	"Respond with a single JSON object with two keys: 'is_inappropriate' (boolean) and " +
	"'toxicity_score' (number between 0.0 and 1.0). Set 'is_inappropriate' to true for any " +
	"profanity, personal insult, bullying or threat."

func compilePatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Verdict is the outcome of a toxicity screen.
type Verdict struct {
	Score           float64
	IsInappropriate bool
}

// Screener classifies feedback text. With no backend it falls back to a
// keyword list; with a backend it fails closed.
type Screener struct {
	backend llm.Summarizer
	log     *logrus.Entry
}

func NewScreener(backend llm.Summarizer, log *logrus.Entry) *Screener {
	return &Screener{backend: backend, log: log}
}

func (s *Screener) Screen(ctx context.Context, text string) Verdict {
	if s.backend == nil {
		return KeywordScreen(text)
	}

	raw, err := s.backend.Summarize(ctx, moderationPrompt, text)
	if err != nil {
		s.log.WithError(err).Error("Toxicity check failed, defaulting to inappropriate")
		return Verdict{Score: failClosedScore, IsInappropriate: true}
	}

	var result struct {
		IsInappropriate bool    `json:"is_inappropriate"`
		ToxicityScore   float64 `json:"toxicity_score"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.log.WithError(err).Error("Toxicity check returned invalid JSON, defaulting to inappropriate")
		return Verdict{Score: failClosedScore, IsInappropriate: true}
	}

	v := Verdict{Score: result.ToxicityScore, IsInappropriate: result.IsInappropriate}
	if v.IsInappropriate && v.Score < flaggedScoreMin {
		v.Score = keywordFlagScore
	}
	return v
}

// KeywordScreen flags text containing any blocked word or phrase.
func KeywordScreen(text string) Verdict {
	lower := strings.ToLower(text)
	for _, re := range toxicityPatterns {
		if re.MatchString(lower) {
			return Verdict{Score: keywordFlagScore, IsInappropriate: true}
		}
	}
	return Verdict{}
}
