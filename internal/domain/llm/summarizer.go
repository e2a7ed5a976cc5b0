package llm

import (
	"context"
	"errors"
)

var (
	// ErrBackendUnavailable covers transport failures, timeouts and non-2xx responses.
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	// ErrMalformedResponse means the backend answered with something that is not the requested JSON.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrNotConfigured is returned when the selected backend has no credentials.
	ErrNotConfigured = errors.New("generative backend not configured")
)

// Summarizer sends one system prompt plus user text to a generative text
// backend and returns the raw JSON text it produced.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, userText string) (string, error)
	Name() string
}
