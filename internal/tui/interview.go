package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"resume-enhancer/internal/workflow"
)

const finishCommand = "/done"

// Conversation sends one user message and returns the updated transcript.
type Conversation interface {
	Reply(ctx context.Context, message string) (workflow.Transcript, error)
}

type replyMsg struct {
	transcript workflow.Transcript
	err        error
}

// InterviewModel is the bubbletea model for the chat with the interviewer.
// Enter sends, /done or ctrl+d finishes once enough was said, ctrl+c aborts.
type InterviewModel struct {
	ctx        context.Context
	conv       Conversation
	input      textinput.Model
	spinner    spinner.Model
	transcript workflow.Transcript
	waiting    bool
	err        error
	finished   bool
	aborted    bool
	width      int
}

func NewInterview(ctx context.Context, conv Conversation, transcript workflow.Transcript) InterviewModel {
	in := textinput.New()
	in.Placeholder = "Type your answer and press Enter"
	in.CharLimit = 4000
	in.Width = 80
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return InterviewModel{
		ctx:        ctx,
		conv:       conv,
		input:      in,
		spinner:    sp,
		transcript: transcript,
		width:      100,
	}
}

func (m InterviewModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InterviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-4)
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.transcript = msg.transcript
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "ctrl+d":
			return m.finish()
		case "enter":
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if text == finishCommand {
				m.input.Reset()
				return m.finish()
			}
			m.input.Reset()
			m.waiting = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.send(text))
		}
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m InterviewModel) finish() (tea.Model, tea.Cmd) {
	if !m.transcript.CanFinish() {
		m.err = fmt.Errorf("keep chatting a little longer: the interview needs more than %d messages", workflow.MinTranscriptTurns)
		return m, nil
	}
	m.finished = true
	return m, tea.Quit
}

func (m InterviewModel) send(text string) tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		transcript, err := conv.Reply(ctx, text)
		return replyMsg{transcript: transcript, err: err}
	}
}

func (m InterviewModel) View() string {
	var b strings.Builder
	b.WriteString(Title("Interview with Alex"))
	b.WriteString("\n\n")

	wrap := lipgloss.NewStyle().Width(max(20, m.width-2))
	for _, turn := range m.transcript {
		who := interviewerStyle.Render("Alex:")
		if turn.Role == workflow.RoleUser {
			who = userStyle.Render("You:")
		}
		b.WriteString(wrap.Render(who + " " + turn.Text))
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.spinner.View() + " Alex is typing…\n\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	hint := "Enter to send · ctrl+c to quit"
	if m.transcript.CanFinish() {
		hint = "Enter to send · " + finishCommand + " or ctrl+d to finish · ctrl+c to quit"
	}
	b.WriteString(hintStyle.Render(hint))
	b.WriteString("\n")
	return b.String()
}

// Finished reports whether the user ended the interview normally.
func (m InterviewModel) Finished() bool { return m.finished }

// Aborted reports whether the user quit without finishing.
func (m InterviewModel) Aborted() bool { return m.aborted }

func (m InterviewModel) Transcript() workflow.Transcript { return m.transcript }
