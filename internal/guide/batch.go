package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"guidecast/internal/storage"
)

// ItemConfig is one entry of a track file. Keyword and OutputName are both
// required; pointer fields distinguish "not set" from a real value so entries
// only override what they mention.
type ItemConfig struct {
	Keyword    string `yaml:"keyword"`
	OutputName string `yaml:"output_name"`

	Model               *string  `yaml:"model"`
	TTSModel            *string  `yaml:"tts_model"`
	Voice               *string  `yaml:"voice"`
	Speed               *float64 `yaml:"speed"`
	Temperature         *float64 `yaml:"temperature"`
	InfoPromptVersion   *string  `yaml:"info_prompt_version"`
	ScriptPromptVersion *string  `yaml:"script_prompt_version"`
	MaxRetries          *int     `yaml:"max_retries"`
	DryRun              *bool    `yaml:"dry_run"`
	Stages              []int    `yaml:"stages"`
}

// TrackConfig describes one batch: a named collection of keywords sharing
// default parameters and an output directory layout.
type TrackConfig struct {
	TrackName       string         `yaml:"track_name"`
	Description     string         `yaml:"description"`
	Metadata        map[string]any `yaml:"metadata"`
	Defaults        ItemConfig     `yaml:"defaults"`
	Files           []ItemConfig   `yaml:"files"`
	ContinueOnError bool           `yaml:"continue_on_error"`
}

// LoadTrackConfig parses and validates a track file. Validation has no side
// effects: a bad file is rejected before any directory is created.
func LoadTrackConfig(path string) (*TrackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}

	var track TrackConfig
	if err := yaml.Unmarshal(data, &track); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse track file: %v", err)}
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	return &track, nil
}

// Validate checks the track structure without touching the filesystem.
func (t *TrackConfig) Validate() error {
	if strings.TrimSpace(t.TrackName) == "" {
		return &ConfigError{Reason: "track_name must not be empty"}
	}
	if len(t.Files) == 0 {
		return &ConfigError{Reason: "files must not be empty"}
	}
	for i, item := range t.Files {
		if strings.TrimSpace(item.Keyword) == "" {
			return &ConfigError{Reason: fmt.Sprintf("files[%d]: keyword must not be empty", i)}
		}
		if strings.TrimSpace(item.OutputName) == "" {
			return &ConfigError{Reason: fmt.Sprintf("files[%d]: output_name must not be empty", i)}
		}
		if len(item.Stages) > 0 {
			if err := validateStages(item.Stages); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("files[%d]: %v", i, err)}
			}
		}
	}
	if len(t.Defaults.Stages) > 0 {
		if err := validateStages(t.Defaults.Stages); err != nil {
			return &ConfigError{Reason: fmt.Sprintf("defaults: %v", err)}
		}
	}
	return nil
}

// BatchOptions carries run-wide overrides from the command line.
type BatchOptions struct {
	// DryRun forces every item into dry-run mode regardless of what the
	// track file says.
	DryRun bool
}

// RunBatch processes every item of a track sequentially. The first failure
// aborts the batch unless continue_on_error is set; either way the report —
// partial or complete — is written into the track root before returning.
func (s *Service) RunBatch(ctx context.Context, track *TrackConfig, opts BatchOptions) (*BatchReport, error) {
	if err := track.Validate(); err != nil {
		return nil, err
	}

	dirs, err := storage.EnsureTrackDirs(s.cfg.Output.TracksDir, track.TrackName)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	report := newBatchReport(track, opts.DryRun, startedAt)
	slog.Info("Batch starting", "track", track.TrackName, "items", len(track.Files), "run_id", report.RunID)

	var abortErr error
	for i, item := range track.Files {
		itemStart := time.Now()
		itemOpts := s.resolveItem(track, item, dirs, opts)

		slog.Info("Batch item", "index", i+1, "of", len(track.Files), "keyword", item.Keyword)
		result, runErr := s.Run(ctx, itemOpts)

		rec := RunRecord{
			Keyword:         item.Keyword,
			OutputName:      item.OutputName,
			StartedAt:       itemStart.Format(time.RFC3339),
			CompletedAt:     time.Now().Format(time.RFC3339),
			DurationSeconds: time.Since(itemStart).Seconds(),
		}
		if runErr != nil {
			rec.Status = StatusFailed
			rec.Error = runErr.Error()
			var stageErr *StageError
			if errors.As(runErr, &stageErr) {
				rec.FailedStage = stageErr.Stage
			}
			report.add(rec)

			if !track.ContinueOnError {
				abortErr = fmt.Errorf("batch aborted at %q: %w", item.Keyword, runErr)
				break
			}
			slog.Warn("Item failed, continuing", "keyword", item.Keyword, "error", runErr)
			continue
		}

		rec.Status = StatusSuccess
		rec.Artifacts = result.Artifacts
		report.add(rec)
	}

	report.finish(startedAt)
	if path, writeErr := report.WriteFile(dirs.Root); writeErr != nil {
		slog.Error("Report write failed", "error", writeErr)
	} else {
		slog.Info("Batch report written", "path", path, "successful", report.Successful, "failed", report.Failed)
	}

	if abortErr != nil {
		return report, abortErr
	}
	return report, nil
}

// resolveItem merges entry fields over track defaults over global defaults.
// A command-line dry-run wins over everything.
func (s *Service) resolveItem(track *TrackConfig, item ItemConfig, dirs storage.TrackDirs, opts BatchOptions) ItemOptions {
	cfg := s.cfg
	def := track.Defaults

	resolved := ItemOptions{
		Keyword:    item.Keyword,
		OutputName: item.OutputName,
		Stages:     AllStages,

		InfoDir:   dirs.Info,
		ScriptDir: dirs.Script,
		AudioDir:  dirs.Audio,

		Model:               cfg.LLM.Model,
		TTSModel:            cfg.TTS.Model,
		Voice:               cfg.TTS.Voice,
		Speed:               cfg.TTS.Speed,
		Temperature:         cfg.LLM.Temperature,
		InfoPromptVersion:   cfg.Prompts.InfoVersion,
		ScriptPromptVersion: cfg.Prompts.ScriptVersion,
		MaxRetries:          cfg.Retry.MaxRetries,
	}

	for _, layer := range []ItemConfig{def, item} {
		if len(layer.Stages) > 0 {
			resolved.Stages = layer.Stages
		}
		if layer.Model != nil {
			resolved.Model = *layer.Model
		}
		if layer.TTSModel != nil {
			resolved.TTSModel = *layer.TTSModel
		}
		if layer.Voice != nil {
			resolved.Voice = *layer.Voice
		}
		if layer.Speed != nil {
			resolved.Speed = *layer.Speed
		}
		if layer.Temperature != nil {
			resolved.Temperature = *layer.Temperature
		}
		if layer.InfoPromptVersion != nil {
			resolved.InfoPromptVersion = *layer.InfoPromptVersion
		}
		if layer.ScriptPromptVersion != nil {
			resolved.ScriptPromptVersion = *layer.ScriptPromptVersion
		}
		if layer.MaxRetries != nil {
			resolved.MaxRetries = *layer.MaxRetries
		}
		if layer.DryRun != nil {
			resolved.DryRun = *layer.DryRun
		}
	}

	if opts.DryRun {
		resolved.DryRun = true
	}
	return resolved
}
