package ai

import (
	"context"
	"fmt"
	"strings"

	"feedback_portal/internal/domain/llm"

	"google.golang.org/genai"
)

// GeminiSummarizer calls Google's Gemini API in JSON response mode.
type GeminiSummarizer struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSummarizer{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

var _ llm.Summarizer = (*GeminiSummarizer)(nil)

func (g *GeminiSummarizer) Name() string { return "gemini" }

func (g *GeminiSummarizer) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.2),
		MaxOutputTokens:   g.maxTokens,
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	contents := []*genai.Content{genai.NewContentFromText(userText, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", llm.ErrBackendUnavailable, err)
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				out.WriteString(part.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: gemini returned no text", llm.ErrMalformedResponse)
	}
	return out.String(), nil
}
