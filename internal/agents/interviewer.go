package agents

import (
	"context"
	"fmt"

	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/workflow"
)

// Interviewer is the conversational agent "Alex". Its system prompt is rendered
// once from the resume, analysis and questions and reused for every reply.
type Interviewer struct {
	agents *Agents
	prompt *Prompt
	system string
}

// Interviewer builds the interview agent for one session.
func (a *Agents) Interviewer(resume, analysis, questions string) (*Interviewer, error) {
	if err := required(map[string]string{"resume": resume, "analysis": analysis, "questions": questions}); err != nil {
		return nil, err
	}
	p, err := a.Catalog.Get(NameInterviewer)
	if err != nil {
		return nil, err
	}
	system, err := p.renderSystem(promptData{Resume: resume, Analysis: analysis, Questions: questions})
	if err != nil {
		return nil, err
	}
	return &Interviewer{agents: a, prompt: p, system: system}, nil
}

// ResumeInterviewer rebuilds the interview agent around a system prompt
// rendered earlier by Interviewer.
func (a *Agents) ResumeInterviewer(system string) (*Interviewer, error) {
	if err := required(map[string]string{"system prompt": system}); err != nil {
		return nil, err
	}
	p, err := a.Catalog.Get(NameInterviewer)
	if err != nil {
		return nil, err
	}
	return &Interviewer{agents: a, prompt: p, system: system}, nil
}

// SystemPrompt returns the rendered system prompt.
func (i *Interviewer) SystemPrompt() string {
	return i.system
}

// Respond replays the transcript after the system prompt and returns the next interviewer turn.
// The transcript is expected to end with the user's latest message.
func (i *Interviewer) Respond(ctx context.Context, transcript workflow.Transcript) (string, error) {
	last, ok := transcript.Last()
	if !ok || last.Role != workflow.RoleUser {
		return "", fmt.Errorf("%w: transcript must end with a user message", ErrEmptyInput)
	}
	msgs := make([]llm.Message, 0, len(transcript)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: i.system})
	for _, turn := range transcript {
		role := llm.RoleAssistant
		if turn.Role == workflow.RoleUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Text})
	}
	return i.agents.complete(ctx, i.prompt, msgs)
}
