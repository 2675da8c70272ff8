package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-enhancer/internal/tui"
	"resume-enhancer/internal/workflow"
)

func stagesCmd() *cobra.Command {
	var current string
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List the workflow stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if current != "" {
				st, ok := workflow.ParseStage(current)
				if !ok {
					return fmt.Errorf("unknown stage %q", current)
				}
				fmt.Fprintln(out, tui.Progress(st))
				return nil
			}
			for i, st := range workflow.Stages() {
				fmt.Fprintf(out, "%d. %-13s %s\n", i+1, st, st.Label())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "render the progress tracker for this stage")
	return cmd
}
