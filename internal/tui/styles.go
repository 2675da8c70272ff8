// Package tui renders the terminal interview and progress tracker for resumectl.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"resume-enhancer/internal/workflow"
)

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	interviewerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	userStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	stepDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	stepCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stepPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

// Progress renders the stage tracker, e.g. "✓ Resume Upload  ● Analysis  ○ Interview".
func Progress(current workflow.Stage) string {
	steps := workflow.Progress(current)
	parts := make([]string, 0, len(steps))
	for _, st := range steps {
		switch st.Status {
		case workflow.StepDone:
			parts = append(parts, stepDoneStyle.Render("✓ "+st.Label))
		case workflow.StepCurrent:
			parts = append(parts, stepCurrentStyle.Render("● "+st.Label))
		default:
			parts = append(parts, stepPendingStyle.Render("○ "+st.Label))
		}
	}
	return strings.Join(parts, "  ")
}

// Title renders a section heading.
func Title(s string) string {
	return titleStyle.Render(s)
}
