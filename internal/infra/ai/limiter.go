package ai

import (
	"context"
	"fmt"
	"time"

	"feedback_portal/internal/domain/llm"

	"golang.org/x/time/rate"
)

// LimitedSummarizer throttles and time-boxes calls to a backend.
type LimitedSummarizer struct {
	next    llm.Summarizer
	limiter *rate.Limiter
	timeout time.Duration
}

// WithLimits wraps s so at most requestsPerMinute calls start per minute and
// each call is cancelled after timeout. Zero values disable either bound.
func WithLimits(s llm.Summarizer, requestsPerMinute int, timeout time.Duration) *LimitedSummarizer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &LimitedSummarizer{next: s, limiter: limiter, timeout: timeout}
}

var _ llm.Summarizer = (*LimitedSummarizer)(nil)

func (l *LimitedSummarizer) Name() string { return l.next.Name() }

func (l *LimitedSummarizer) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", llm.ErrBackendUnavailable, err)
	}
	return l.next.Summarize(ctx, systemPrompt, userText)
}
