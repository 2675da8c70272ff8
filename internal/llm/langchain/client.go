// Package langchain adapts langchaingo chat models to llm.Client.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"resume-enhancer/internal/llm"
)

// Client sends requests through any langchaingo llms.Model.
type Client struct {
	Model llms.Model
}

// NewOpenAI builds a langchaingo OpenAI backend.
func NewOpenAI(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.MissingKey("OPENAI_API_KEY")
	}
	m, err := lcopenai.New(lcopenai.WithToken(apiKey), lcopenai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("langchain openai: %w", err)
	}
	return &Client{Model: m}, nil
}

// NewGoogleAI builds a langchaingo Gemini backend.
func NewGoogleAI(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, llm.MissingKey("GEMINI_API_KEY")
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("langchain googleai: %w", err)
	}
	return &Client{Model: m}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.Model.GenerateContent(ctx, toMessageContent(req.Messages), llms.WithTemperature(float64(req.Temperature)))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", llm.ErrEmptyCompletion
	}
	out := resp.Choices[0].Content
	if strings.TrimSpace(out) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return out, nil
}

func toMessageContent(msgs []llm.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case llm.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

var _ llm.Client = (*Client)(nil)
