package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"guidecast/internal/guide"
	"guidecast/pkg/config"
)

var (
	batchTrackFile string
	batchDryRun    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for every keyword in a track file",
	Long: `Process a track configuration sequentially. The first failing item aborts
the batch unless the track sets continue_on_error; a batch_report.json is
written into the track directory either way.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchTrackFile, "track-file", "f", "", "Track configuration YAML (required)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "Force placeholder artifacts for every item")
	_ = batchCmd.MarkFlagRequired("track-file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	track, err := guide.LoadTrackConfig(batchTrackFile)
	if err != nil {
		return err
	}

	svc, err := guide.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	report, err := svc.RunBatch(ctx, track, guide.BatchOptions{DryRun: batchDryRun})
	if report != nil {
		slog.Info("Batch finished",
			"track", report.TrackName,
			"total", report.TotalFiles,
			"successful", report.Successful,
			"failed", report.Failed,
			"duration_seconds", report.DurationSeconds,
		)
	}
	return err
}
