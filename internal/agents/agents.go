// Package agents holds the six single-call LLM agents of the enhancement workflow.
package agents

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/workflow"
)

// ErrEmptyInput is returned before any LLM call when a required input is blank.
var ErrEmptyInput = errors.New("agent input is empty")

// CompletionError wraps a failed LLM call with the agent that made it.
type CompletionError struct {
	Agent string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Agent, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Agents runs catalog prompts against one LLM client.
type Agents struct {
	LLM     llm.Client
	Catalog *Catalog
}

// New returns agents backed by the embedded prompt catalog.
func New(client llm.Client) (*Agents, error) {
	cat, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return &Agents{LLM: client, Catalog: cat}, nil
}

// Analyze identifies gaps and weaknesses in a resume.
func (a *Agents) Analyze(ctx context.Context, resume string) (string, error) {
	if err := required(map[string]string{"resume": resume}); err != nil {
		return "", err
	}
	return a.single(ctx, NameAnalyzer, promptData{Resume: resume})
}

// GenerateQuestions produces numbered interview questions targeting the analysis gaps.
func (a *Agents) GenerateQuestions(ctx context.Context, resume, analysis string) (string, error) {
	if err := required(map[string]string{"resume": resume, "analysis": analysis}); err != nil {
		return "", err
	}
	return a.single(ctx, NameQuestionGenerator, promptData{Resume: resume, Analysis: analysis})
}

// ExtractInsights pulls achievements and skills out of the interview transcript.
func (a *Agents) ExtractInsights(ctx context.Context, resume string, transcript workflow.Transcript) (string, error) {
	if err := required(map[string]string{"resume": resume}); err != nil {
		return "", err
	}
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: transcript", ErrEmptyInput)
	}
	return a.single(ctx, NameInsightExtractor, promptData{Resume: resume, Transcript: FormatTranscript(transcript)})
}

// Enhance rewrites the resume using the extracted insights.
func (a *Agents) Enhance(ctx context.Context, resume, insights string) (string, error) {
	if err := required(map[string]string{"resume": resume, "insights": insights}); err != nil {
		return "", err
	}
	return a.single(ctx, NameEnhancer, promptData{Resume: resume, Insights: insights})
}

// Verify checks the enhanced resume against the original. The caller decides
// what the response means with workflow.ApplyVerification.
func (a *Agents) Verify(ctx context.Context, original, enhanced string) (string, error) {
	if err := required(map[string]string{"original resume": original, "enhanced resume": enhanced}); err != nil {
		return "", err
	}
	return a.single(ctx, NameVerifier, promptData{Resume: original, Enhanced: enhanced})
}

// FormatTranscript flattens the conversation into "User:"/"Interviewer:" lines.
func FormatTranscript(t workflow.Transcript) string {
	lines := make([]string, 0, len(t))
	for _, turn := range t {
		prefix := "Interviewer"
		if turn.Role == workflow.RoleUser {
			prefix = "User"
		}
		lines = append(lines, prefix+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

func (a *Agents) single(ctx context.Context, name string, data promptData) (string, error) {
	p, err := a.Catalog.Get(name)
	if err != nil {
		return "", err
	}
	system, err := p.renderSystem(data)
	if err != nil {
		return "", err
	}
	user, err := p.renderUser(data)
	if err != nil {
		return "", err
	}
	return a.complete(ctx, p, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	})
}

func (a *Agents) complete(ctx context.Context, p *Prompt, msgs []llm.Message) (string, error) {
	out, err := a.LLM.Complete(ctx, llm.Request{
		Agent:       p.Name,
		Messages:    msgs,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", &CompletionError{Agent: p.Name, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &CompletionError{Agent: p.Name, Err: llm.ErrEmptyCompletion}
	}
	return out, nil
}

func required(inputs map[string]string) error {
	var missing []string
	for name, v := range inputs {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrEmptyInput, strings.Join(missing, ", "))
}
