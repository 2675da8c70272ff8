package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"resume-enhancer/internal/workflow"
)

type fakeConversation struct {
	transcript workflow.Transcript
	err        error
	sent       []string
}

func (f *fakeConversation) Reply(_ context.Context, message string) (workflow.Transcript, error) {
	f.sent = append(f.sent, message)
	if f.err != nil {
		return nil, f.err
	}
	f.transcript = append(f.transcript,
		workflow.Turn{Role: workflow.RoleUser, Text: message},
		workflow.Turn{Role: workflow.RoleInterviewer, Text: "Tell me more."},
	)
	return f.transcript, nil
}

func greeting() workflow.Transcript {
	return workflow.Transcript{{Role: workflow.RoleInterviewer, Text: workflow.Greeting}}
}

func typeText(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// pressEnter submits the input and runs the resulting reply command.
func pressEnter(t *testing.T, m tea.Model) tea.Model {
	t.Helper()
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return m
	}
	var cmds []tea.Cmd
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		cmds = msg
	case replyMsg:
		m, _ = m.Update(msg)
		return m
	default:
		return m
	}
	for _, c := range cmds {
		if c == nil {
			continue
		}
		if reply, ok := c().(replyMsg); ok {
			m, _ = m.Update(reply)
		}
	}
	return m
}

func TestInterviewSendsMessages(t *testing.T) {
	conv := &fakeConversation{transcript: greeting()}
	var m tea.Model = NewInterview(context.Background(), conv, greeting())

	m = typeText(t, m, "I led the payments team")
	m = pressEnter(t, m)

	if len(conv.sent) != 1 || conv.sent[0] != "I led the payments team" {
		t.Fatalf("unexpected sent messages %v", conv.sent)
	}
	im := m.(InterviewModel)
	if len(im.Transcript()) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(im.Transcript()))
	}
	if !strings.Contains(im.View(), "Tell me more.") {
		t.Fatalf("view should show the interviewer reply")
	}
}

func TestInterviewFinishRequiresEnoughTurns(t *testing.T) {
	conv := &fakeConversation{transcript: greeting()}
	var m tea.Model = NewInterview(context.Background(), conv, greeting())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.(InterviewModel).Finished() {
		t.Fatalf("should not finish with only the greeting")
	}
	if !strings.Contains(m.View(), "keep chatting") {
		t.Fatalf("expected a hint to keep chatting, got %q", m.View())
	}

	m = pressEnter(t, typeText(t, m, "first answer"))
	m = pressEnter(t, typeText(t, m, "second answer"))
	m = typeText(t, m, finishCommand)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.(InterviewModel).Finished() {
		t.Fatalf("expected interview to finish after %d turns", len(m.(InterviewModel).Transcript()))
	}
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestInterviewReplyErrorIsShown(t *testing.T) {
	conv := &fakeConversation{transcript: greeting(), err: errors.New("llm down")}
	var m tea.Model = NewInterview(context.Background(), conv, greeting())

	m = pressEnter(t, typeText(t, m, "hello"))
	im := m.(InterviewModel)
	if len(im.Transcript()) != 1 {
		t.Fatalf("failed reply must not change the transcript")
	}
	if !strings.Contains(im.View(), "llm down") {
		t.Fatalf("expected error in view")
	}
}

func TestInterviewAbort(t *testing.T) {
	var m tea.Model = NewInterview(context.Background(), &fakeConversation{}, greeting())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.(InterviewModel).Aborted() {
		t.Fatalf("expected aborted")
	}
}

func TestProgressMarksStages(t *testing.T) {
	out := Progress(workflow.StageInterview)
	for _, want := range []string{"✓ Resume Upload", "✓ Analysis", "● Interview", "○ Download"} {
		if !strings.Contains(out, want) {
			t.Fatalf("progress %q missing %q", out, want)
		}
	}
}
