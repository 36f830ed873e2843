package conversation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "fursaver-site/internal/errors"
)

// Completer turns one user message into one assistant reply
type Completer interface {
	Complete(ctx context.Context, text string) (string, error)
}

// ClientConfig configures the OpenAI-compatible chat completions client
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint. Every call
// is stateless: only the system prompt and the newest user message are sent.
type Client struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

func NewClient(cfg ClientConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client:       openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
}

func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", apperrors.NewConversationError("chat completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewConversationError("chat completion returned no choices", nil)
	}

	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", apperrors.NewConversationError("chat completion returned an empty reply", nil)
	}
	return reply, nil
}
