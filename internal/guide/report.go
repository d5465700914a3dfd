package guide

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ReportFileName is written into the track root after every batch run,
// including aborted ones.
const ReportFileName = "batch_report.json"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunRecord is one item's outcome within a batch.
type RunRecord struct {
	Keyword         string            `json:"keyword"`
	OutputName      string            `json:"output_name,omitempty"`
	Status          string            `json:"status"`
	FailedStage     string            `json:"failed_stage,omitempty"`
	Error           string            `json:"error,omitempty"`
	Artifacts       map[string]string `json:"artifacts,omitempty"`
	StartedAt       string            `json:"started_at"`
	CompletedAt     string            `json:"completed_at"`
	DurationSeconds float64           `json:"duration_seconds"`
}

// BatchReport summarizes a batch run. TotalFiles counts planned items, so an
// aborted run shows fewer entries in Files than TotalFiles.
type BatchReport struct {
	RunID           string         `json:"run_id"`
	TrackName       string         `json:"track_name"`
	Description     string         `json:"description,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	DryRun          bool           `json:"dry_run"`
	StartedAt       string         `json:"started_at"`
	CompletedAt     string         `json:"completed_at"`
	DurationSeconds float64        `json:"duration_seconds"`
	TotalFiles      int            `json:"total_files"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Files           []RunRecord    `json:"files"`
}

func newBatchReport(track *TrackConfig, dryRun bool, startedAt time.Time) *BatchReport {
	return &BatchReport{
		RunID:       uuid.NewString(),
		TrackName:   track.TrackName,
		Description: track.Description,
		Metadata:    track.Metadata,
		DryRun:      dryRun,
		StartedAt:   startedAt.Format(time.RFC3339),
		TotalFiles:  len(track.Files),
		Files:       []RunRecord{},
	}
}

func (r *BatchReport) add(rec RunRecord) {
	r.Files = append(r.Files, rec)
	switch rec.Status {
	case StatusSuccess:
		r.Successful++
	case StatusFailed:
		r.Failed++
	}
}

func (r *BatchReport) finish(startedAt time.Time) {
	now := time.Now()
	r.CompletedAt = now.Format(time.RFC3339)
	r.DurationSeconds = now.Sub(startedAt).Seconds()
}

// WriteFile stores the report as batch_report.json in dir and returns its
// path.
func (r *BatchReport) WriteFile(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
