// Package commands holds the resumectl cobra commands.
package commands

import (
	"github.com/spf13/cobra"

	"resume-enhancer/internal/shared/config"
)

var (
	provider string
	model    string
	cfg      config.Config
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Enhance a resume from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if provider != "" {
				cfg.LLMProvider = config.NormalizeProvider(provider)
			}
			if model != "" {
				cfg.LLMModel = model
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: openai, gemini, langchain or placeholder (default $LLM_PROVIDER)")
	root.PersistentFlags().StringVar(&model, "model", "", "model name (default $LLM_MODEL)")

	root.AddCommand(runCmd(), analyzeCmd(), stagesCmd(), exportCmd())
	return root
}
