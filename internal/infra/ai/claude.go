package ai

import (
	"context"
	"fmt"
	"strings"

	"feedback_portal/internal/domain/llm"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeSummarizer calls the Anthropic Messages API. Claude has no JSON
// response mode, so the system prompt carries the format requirement.
type ClaudeSummarizer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewClaudeSummarizer(apiKey, model string, maxTokens int) *ClaudeSummarizer {
	return &ClaudeSummarizer{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

var _ llm.Summarizer = (*ClaudeSummarizer)(nil)

func (c *ClaudeSummarizer) Name() string { return "anthropic" }

func (c *ClaudeSummarizer) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Temperature: anthropic.Float(0.2),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %v", llm.ErrBackendUnavailable, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text", llm.ErrMalformedResponse)
	}
	return out.String(), nil
}
