package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"guidecast/internal/guide"
	"guidecast/pkg/config"
)

var (
	genStages        []int
	genDryRun        bool
	genOutputName    string
	genOutputDir     string
	genModel         string
	genTTSModel      string
	genVoice         string
	genSpeed         float64
	genTemperature   float64
	genPromptVersion string
	genInfoPrompt    string
	genMaxRetries    int
)

var generateCmd = &cobra.Command{
	Use:   "generate <keyword>",
	Short: "Run the pipeline for a single keyword",
	Long: `Run the selected pipeline stages for one keyword. All artifacts land in
the output directory; later stages read the earlier stages' files from there.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntSliceVarP(&genStages, "stages", "s", []int{1, 2, 3}, "Stages to run (1=info, 2=script, 3=audio)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Produce placeholder artifacts without API calls")
	generateCmd.Flags().StringVarP(&genOutputName, "output-name", "n", "", "Artifact base name (defaults to the keyword)")
	generateCmd.Flags().StringVarP(&genOutputDir, "output-dir", "o", "", "Artifact directory (defaults to the configured output dir)")
	generateCmd.Flags().StringVarP(&genModel, "model", "m", "", "Language model for info and script stages")
	generateCmd.Flags().StringVar(&genTTSModel, "tts-model", "", "Speech synthesis model")
	generateCmd.Flags().StringVar(&genVoice, "voice", "", "Narration voice")
	generateCmd.Flags().Float64Var(&genSpeed, "speed", 0, "Speaking rate")
	generateCmd.Flags().Float64Var(&genTemperature, "temperature", 0, "Sampling temperature for script generation")
	generateCmd.Flags().StringVar(&genPromptVersion, "prompt-version", "", "Script prompt template version")
	generateCmd.Flags().StringVar(&genInfoPrompt, "info-prompt-version", "", "Info prompt template version")
	generateCmd.Flags().IntVar(&genMaxRetries, "max-retries", 0, "Attempts per external call")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	svc, err := guide.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	opts := resolveGenerateOptions(cmd, cfg, args[0])

	result, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}

	for name, path := range result.Artifacts {
		slog.Info("Artifact ready", "stage", name, "path", path)
	}
	return nil
}

// resolveGenerateOptions layers command-line flags over configured defaults.
// Numeric flags go through Changed so an explicit zero still counts.
func resolveGenerateOptions(cmd *cobra.Command, cfg *config.Config, keyword string) guide.ItemOptions {
	outputDir := genOutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}

	opts := guide.ItemOptions{
		Keyword:    keyword,
		OutputName: genOutputName,
		Stages:     genStages,
		DryRun:     genDryRun,

		InfoDir:   outputDir,
		ScriptDir: outputDir,
		AudioDir:  outputDir,

		Model:               cfg.LLM.Model,
		TTSModel:            cfg.TTS.Model,
		Voice:               cfg.TTS.Voice,
		Speed:               cfg.TTS.Speed,
		Temperature:         cfg.LLM.Temperature,
		InfoPromptVersion:   cfg.Prompts.InfoVersion,
		ScriptPromptVersion: cfg.Prompts.ScriptVersion,
		MaxRetries:          cfg.Retry.MaxRetries,
	}

	if genModel != "" {
		opts.Model = genModel
	}
	if genTTSModel != "" {
		opts.TTSModel = genTTSModel
	}
	if genVoice != "" {
		opts.Voice = genVoice
	}
	if genPromptVersion != "" {
		opts.ScriptPromptVersion = genPromptVersion
	}
	if genInfoPrompt != "" {
		opts.InfoPromptVersion = genInfoPrompt
	}
	if cmd.Flags().Changed("speed") {
		opts.Speed = genSpeed
	}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = genTemperature
	}
	if cmd.Flags().Changed("max-retries") {
		opts.MaxRetries = genMaxRetries
	}

	return opts
}
