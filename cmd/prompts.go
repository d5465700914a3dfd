package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"guidecast/pkg/config"
	"guidecast/pkg/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available prompt template versions",
	RunE:  runPrompts,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}

func runPrompts(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pipelines := []string{prompts.PipelineInfo, prompts.PipelineScript}
	for _, pipeline := range pipelines {
		versions, err := prompts.List(cfg.Prompts.Dir, pipeline)
		if err != nil {
			return fmt.Errorf("list %s templates: %w", pipeline, err)
		}

		fmt.Printf("%s:\n", pipeline)
		if len(versions) == 0 {
			fmt.Println("  (no templates found)")
			continue
		}
		for _, v := range versions {
			fmt.Printf("  %s\n", v)
		}
	}
	return nil
}
