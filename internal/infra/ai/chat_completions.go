package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"feedback_portal/internal/domain/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ChatCompletionsClient talks to any OpenAI-compatible chat completions API.
// DeepSeek and OpenAI both use it; only the base URL differs.
type ChatCompletionsClient struct {
	name      string
	model     string
	maxTokens int
	client    openai.Client
}

// NewChatCompletionsClient builds a client for baseURL (e.g.
// "https://api.openai.com/v1/"). Extra options are appended after the
// defaults, so tests can override retries.
func NewChatCompletionsClient(name, baseURL, apiKey, model string, maxTokens int, httpClient *http.Client, opts ...option.RequestOption) *ChatCompletionsClient {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}
	if httpClient != nil {
		base = append(base, option.WithHTTPClient(httpClient))
	}
	return &ChatCompletionsClient{
		name:      name,
		model:     model,
		maxTokens: maxTokens,
		client:    openai.NewClient(append(base, opts...)...),
	}
}

var _ llm.Summarizer = (*ChatCompletionsClient)(nil)

func (c *ChatCompletionsClient) Name() string { return c.name }

func (c *ChatCompletionsClient) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userText),
		},
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s returned %d: %v", llm.ErrBackendUnavailable, c.name, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: %s request: %v", llm.ErrBackendUnavailable, c.name, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: %s returned no content", llm.ErrMalformedResponse, c.name)
	}
	return resp.Choices[0].Message.Content, nil
}
