package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-enhancer/internal/export"
)

func exportCmd() *cobra.Command {
	var pdfOut string
	cmd := &cobra.Command{
		Use:   "export <resume.txt>",
		Short: "Render a plain text resume as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			data, pages, err := export.RenderPDF(string(raw))
			if err != nil {
				return fmt.Errorf("render pdf: %w", err)
			}
			if err := os.WriteFile(pdfOut, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages)\n", pdfOut, pages)
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfOut, "pdf", export.PDFFileName, "output PDF path")
	return cmd
}
