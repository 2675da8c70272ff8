package llm

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is one chat completion: ordered messages plus sampling temperature.
type Request struct {
	// Agent names the caller for logs and metrics.
	Agent       string
	Messages    []Message
	Temperature float32
}

// Client abstracts chat completion providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	// ErrMissingCredential means no API key was configured; no request is sent.
	ErrMissingCredential = errors.New("llm credential missing")
	// ErrEmptyCompletion is returned when a provider answers with no text.
	ErrEmptyCompletion = errors.New("llm returned empty completion")
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// UnconfiguredClient fails every call with the configuration error it was built with.
// The service still starts so users see a missing credential error per request.
type UnconfiguredClient struct {
	Err error
}

func (c UnconfiguredClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	if c.Err == nil {
		return "", ErrMissingCredential
	}
	if errors.Is(c.Err, ErrMissingCredential) {
		return "", c.Err
	}
	return "", fmt.Errorf("%w: %v", ErrMissingCredential, c.Err)
}

// MissingKey builds the error providers return when their API key is blank.
func MissingKey(envVar string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingCredential, envVar)
}
