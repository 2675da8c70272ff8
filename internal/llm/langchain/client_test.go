package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"resume-enhancer/internal/llm"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestCompleteMapsRolesAndTemperature(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " follow-up question "}}}}
	c := &Client{Model: model}

	out, err := c.Complete(context.Background(), llm.Request{
		Temperature: 0.7,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleAssistant, Content: "greeting"},
			{Role: llm.RoleUser, Content: "answer"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != " follow-up question " {
		t.Fatalf("unexpected output %q", out)
	}

	wantRoles := []llms.ChatMessageType{llms.ChatMessageTypeSystem, llms.ChatMessageTypeAI, llms.ChatMessageTypeHuman}
	if len(model.messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(model.messages))
	}
	for i, role := range wantRoles {
		if model.messages[i].Role != role {
			t.Fatalf("message %d role = %s, want %s", i, model.messages[i].Role, role)
		}
	}
	if text, ok := model.messages[2].Parts[0].(llms.TextContent); !ok || text.Text != "answer" {
		t.Fatalf("unexpected part %#v", model.messages[2].Parts[0])
	}
	if model.opts.Temperature < 0.69 || model.opts.Temperature > 0.71 {
		t.Fatalf("unexpected temperature %v", model.opts.Temperature)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	tests := []struct {
		name string
		resp *llms.ContentResponse
	}{
		{name: "no choices", resp: &llms.ContentResponse{}},
		{name: "blank content", resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " \n\t"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{Model: &fakeModel{resp: tt.resp}}
			if _, err := c.Complete(context.Background(), llm.Request{}); !errors.Is(err, llm.ErrEmptyCompletion) {
				t.Fatalf("expected ErrEmptyCompletion, got %v", err)
			}
		})
	}
}

func TestConstructorsRequireKey(t *testing.T) {
	if _, err := NewOpenAI("", "gpt-4o"); !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := NewGoogleAI(context.Background(), "", "gemini-2.5-flash"); !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
