package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/export"
	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/sessions"
	"resume-enhancer/internal/shared/storage/object/local"
	"resume-enhancer/internal/tui"
	"resume-enhancer/internal/workflow"
)

type cannedLLM map[string]string

func (c cannedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	return c[req.Agent], nil
}

func newTestService(t *testing.T) *sessions.Service {
	t.Helper()
	ag, err := agents.New(cannedLLM{
		agents.NameAnalyzer:          "Needs numbers.",
		agents.NameQuestionGenerator: "1. What did you ship?",
		agents.NameInterviewer:       "Great, anything else?",
		agents.NameInsightExtractor:  "- Shipped billing",
		agents.NameEnhancer:          "Jane Doe\nShipped billing to 40 countries.",
		agents.NameVerifier:          "Looks accurate.",
	})
	if err != nil {
		t.Fatalf("agents: %v", err)
	}
	return &sessions.Service{
		Repo:   sessions.NewMemoryRepo(),
		Store:  local.New(t.TempDir()),
		Agents: ag,
		Events: events.NopPublisher{},
	}
}

func TestRunWorkflowWritesExports(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("Jane Doe\nEngineer\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	interview := func(ctx context.Context, conv tui.Conversation, transcript workflow.Transcript) error {
		if len(transcript) != 1 || transcript[0].Text != workflow.Greeting {
			t.Fatalf("expected greeting transcript, got %+v", transcript)
		}
		for _, msg := range []string{"I shipped billing", "In 40 countries"} {
			if _, err := conv.Reply(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	var out bytes.Buffer
	if err := runWorkflow(context.Background(), newTestService(t), resume, dir, &out, interview); err != nil {
		t.Fatalf("runWorkflow: %v\n%s", err, out.String())
	}

	txt, err := os.ReadFile(filepath.Join(dir, export.TextFileName))
	if err != nil {
		t.Fatalf("read text export: %v", err)
	}
	if !strings.Contains(string(txt), "40 countries") {
		t.Fatalf("unexpected final resume %q", txt)
	}
	pdf, err := os.ReadFile(filepath.Join(dir, export.PDFFileName))
	if err != nil {
		t.Fatalf("read pdf export: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("pdf export missing header")
	}
	if !strings.Contains(out.String(), "Needs numbers.") {
		t.Fatalf("analysis not printed: %s", out.String())
	}
}

func TestRunWorkflowStopsWhenInterviewAborted(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("Jane Doe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	abort := func(context.Context, tui.Conversation, workflow.Transcript) error { return errAborted }

	err := runWorkflow(context.Background(), newTestService(t), resume, dir, &bytes.Buffer{}, abort)
	if err != errAborted {
		t.Fatalf("expected errAborted, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, export.TextFileName)); !os.IsNotExist(err) {
		t.Fatalf("no export expected after abort")
	}
}

func TestStagesCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "list", args: []string{"stages"}, want: "3. interview"},
		{name: "progress", args: []string{"stages", "--current", "enhancement"}, want: "● Enhancement"},
		{name: "unknown", args: []string{"stages", "--current", "nope"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)
			err := root.Execute()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Fatalf("output %q missing %q", out.String(), tt.want)
			}
		})
	}
}

func TestExportCommandWritesPDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "final.txt")
	dst := filepath.Join(dir, "final.pdf")
	if err := os.WriteFile(src, []byte("Jane Doe\nStaff Engineer\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"export", src, "--pdf", dst})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "(1 pages)") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
}

func TestAnalyzeFileReport(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("Jane Doe\nEngineer\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t)

	report, err := analyzeFile(context.Background(), svc.Agents, resume)
	if err != nil {
		t.Fatalf("analyzeFile: %v", err)
	}
	if report.Analysis != "Needs numbers." || report.Questions != "1. What did you ship?" {
		t.Fatalf("unexpected report %+v", report)
	}

	var out bytes.Buffer
	if err := writeReport(&out, report, true); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	if !strings.Contains(out.String(), `"mimeType": "text/plain"`) {
		t.Fatalf("unexpected json %s", out.String())
	}
}
