package eino

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"filing-analyzer/internal/llm"
	"filing-analyzer/internal/shared/telemetry"
)

// Client implements llm.Completer on an eino chat model.
type Client struct {
	chat  model.BaseChatModel
	model string
}

// Options configures the eino chat model.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient builds an OpenAI-compatible eino chat model.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}
	chat, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		APIKey:     opts.APIKey,
		Model:      opts.Model,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("init eino chat model: %w", err)
	}
	return &Client{chat: chat, model: opts.Model}, nil
}

// NewClientWithModel wraps an existing chat model.
func NewClientWithModel(chat model.BaseChatModel, name string) *Client {
	return &Client{chat: chat, model: name}
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	fields := map[string]any{"model": c.model, "provider": "eino"}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		fields["prompt_tokens"] = resp.ResponseMeta.Usage.PromptTokens
		fields["completion_tokens"] = resp.ResponseMeta.Usage.CompletionTokens
		fields["total_tokens"] = resp.ResponseMeta.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return resp.Content, nil
}

var _ llm.Completer = (*Client)(nil)
