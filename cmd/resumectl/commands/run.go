package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/bootstrap"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/export"
	"resume-enhancer/internal/sessions"
	"resume-enhancer/internal/shared/storage/object/local"
	"resume-enhancer/internal/tui"
	"resume-enhancer/internal/workflow"
)

const cliUser = "local"

var errAborted = errors.New("interview aborted")

func runCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "run <resume.pdf|resume.docx|resume.txt>",
		Short: "Run the full enhancement workflow with an interactive interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := bootstrap.NewLLMClient(ctx, cfg)
			if err != nil {
				return err
			}
			ag, err := agents.New(client)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			svc := &sessions.Service{
				Repo:   sessions.NewMemoryRepo(),
				Store:  local.New(filepath.Join(outDir, ".store")),
				Agents: ag,
				Events: events.NopPublisher{},
			}
			return runWorkflow(ctx, svc, args[0], outDir, cmd.OutOrStdout(), interactiveInterview)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the enhanced resume files")
	return cmd
}

// interviewFunc drives the interview until the user finishes or aborts.
type interviewFunc func(ctx context.Context, conv tui.Conversation, transcript workflow.Transcript) error

func interactiveInterview(ctx context.Context, conv tui.Conversation, transcript workflow.Transcript) error {
	final, err := tea.NewProgram(tui.NewInterview(ctx, conv, transcript)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.InterviewModel); ok && m.Finished() {
		return nil
	}
	return errAborted
}

type sessionConversation struct {
	svc *sessions.Service
	id  string
}

func (c sessionConversation) Reply(ctx context.Context, message string) (workflow.Transcript, error) {
	res, err := c.svc.Reply(ctx, cliUser, c.id, message)
	if err != nil {
		return nil, err
	}
	return res.Session.Transcript, nil
}

func runWorkflow(ctx context.Context, svc *sessions.Service, path, outDir string, out io.Writer, interview interviewFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sess, err := svc.Create(ctx, cliUser)
	if err != nil {
		return err
	}
	id := sess.ID
	step := func(label string, fn func() (sessions.Result, error)) (workflow.Session, error) {
		fmt.Fprintf(out, "%s...\n", label)
		res, err := fn()
		if err != nil {
			return workflow.Session{}, fmt.Errorf("%s: %w", label, err)
		}
		fmt.Fprintln(out, tui.Progress(res.Session.Stage))
		return res.Session, nil
	}

	if _, err = step("Reading resume", func() (sessions.Result, error) {
		return svc.Upload(ctx, cliUser, id, filepath.Base(path), "", f)
	}); err != nil {
		return err
	}
	if sess, err = step("Analyzing", func() (sessions.Result, error) { return svc.Analyze(ctx, cliUser, id) }); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n%s\n\n%s\n%s\n\n", tui.Title("Analysis"), sess.Artifacts.Analysis,
		tui.Title("Questions"), sess.Artifacts.Questions)

	if sess, err = step("Starting interview", func() (sessions.Result, error) { return svc.StartInterview(ctx, cliUser, id) }); err != nil {
		return err
	}
	if err := interview(ctx, sessionConversation{svc: svc, id: id}, sess.Transcript); err != nil {
		return err
	}
	if _, err = step("Finishing interview", func() (sessions.Result, error) { return svc.FinishInterview(ctx, cliUser, id) }); err != nil {
		return err
	}
	if _, err = step("Enhancing", func() (sessions.Result, error) { return svc.Enhance(ctx, cliUser, id) }); err != nil {
		return err
	}
	if _, err = step("Starting verification", func() (sessions.Result, error) { return svc.StartVerification(ctx, cliUser, id) }); err != nil {
		return err
	}
	if sess, err = step("Verifying", func() (sessions.Result, error) { return svc.Verify(ctx, cliUser, id) }); err != nil {
		return err
	}
	if sess.Artifacts.Verification != "" {
		fmt.Fprintf(out, "\n%s\n%s\n\n", tui.Title("Verification"), sess.Artifacts.Verification)
	}
	if _, err = step("Preparing download", func() (sessions.Result, error) { return svc.StartDownload(ctx, cliUser, id) }); err != nil {
		return err
	}

	for _, format := range []export.Format{export.FormatText, export.FormatPDF} {
		file, err := svc.Export(ctx, cliUser, id, format)
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, file.Name)
		if err := os.WriteFile(dst, file.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", dst)
	}
	return nil
}
