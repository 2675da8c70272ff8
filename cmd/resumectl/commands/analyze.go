package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/bootstrap"
	"resume-enhancer/internal/ingest"
	"resume-enhancer/internal/tui"
)

// analysisReport is the --json output of analyze.
type analysisReport struct {
	File      string `json:"file"`
	MimeType  string `json:"mimeType"`
	Analysis  string `json:"analysis"`
	Questions string `json:"questions"`
}

func analyzeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <resume>",
		Short: "Run only the analyzer and question generator on a resume",
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
			report, err := analyzeFile(ctx, ag, args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func analyzeFile(ctx context.Context, ag *agents.Agents, path string) (analysisReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analysisReport{}, err
	}
	doc, err := ingest.Extract(ctx, data, filepath.Base(path), "")
	if err != nil {
		return analysisReport{}, fmt.Errorf("read resume: %w", err)
	}
	analysis, err := ag.Analyze(ctx, doc.Text)
	if err != nil {
		return analysisReport{}, err
	}
	questions, err := ag.GenerateQuestions(ctx, doc.Text, analysis)
	if err != nil {
		return analysisReport{}, err
	}
	return analysisReport{
		File:      filepath.Base(path),
		MimeType:  doc.MimeType,
		Analysis:  analysis,
		Questions: questions,
	}, nil
}

func writeReport(w io.Writer, r analysisReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n\n%s\n%s\n", tui.Title("Analysis"), r.Analysis, tui.Title("Questions"), r.Questions)
	return err
}
