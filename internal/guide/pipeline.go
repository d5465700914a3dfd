package guide

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"guidecast/internal/stage"
)

// Pipeline stage numbers as users name them on the command line and in track
// files.
const (
	StageInfo   = 1
	StageScript = 2
	StageAudio  = 3
)

// AllStages runs the full pipeline.
var AllStages = []int{StageInfo, StageScript, StageAudio}

// ItemOptions is one fully resolved pipeline run: every tunable has a
// concrete value by the time it reaches Run.
type ItemOptions struct {
	Keyword    string
	OutputName string
	Stages     []int
	DryRun     bool

	InfoDir   string
	ScriptDir string
	AudioDir  string

	Model               string
	TTSModel            string
	Voice               string
	Speed               float64
	Temperature         float64
	InfoPromptVersion   string
	ScriptPromptVersion string
	MaxRetries          int
}

// RunResult lists the artifacts a run produced, keyed by stage name.
type RunResult struct {
	Keyword   string
	Artifacts map[string]string
}

// Run executes the selected stages in order and stops at the first failure.
// The result is all-or-nothing: on error only the error (wrapping the failing
// stage's name) comes back, though artifacts written by earlier stages remain
// on disk.
func (s *Service) Run(ctx context.Context, opts ItemOptions) (*RunResult, error) {
	if err := validateStages(opts.Stages); err != nil {
		return nil, err
	}

	result := &RunResult{
		Keyword:   opts.Keyword,
		Artifacts: make(map[string]string, len(opts.Stages)),
	}

	for _, n := range opts.Stages {
		exec, req := s.plan(n, opts)
		artifact, err := exec.Execute(ctx, req)
		if err != nil {
			return nil, &StageError{Stage: exec.Name, Err: err}
		}
		result.Artifacts[exec.Name] = artifact
		s.mirror(ctx, artifact)
	}

	return result, nil
}

func (s *Service) plan(n int, opts ItemOptions) (*stage.Executor, stage.Request) {
	req := stage.Request{
		Keyword:    opts.Keyword,
		OutputName: opts.OutputName,
		DryRun:     opts.DryRun,
		MaxRetries: opts.MaxRetries,
	}

	switch n {
	case StageScript:
		req.OutputDir = opts.ScriptDir
		req.UpstreamDir = opts.InfoDir
		req.Model = opts.Model
		req.Temperature = opts.Temperature
		req.PromptVersion = opts.ScriptPromptVersion
		return s.script, req
	case StageAudio:
		req.OutputDir = opts.AudioDir
		req.UpstreamDir = opts.ScriptDir
		req.Model = opts.TTSModel
		req.Voice = opts.Voice
		req.Speed = opts.Speed
		return s.audio, req
	default:
		req.OutputDir = opts.InfoDir
		req.Model = opts.Model
		req.PromptVersion = opts.InfoPromptVersion
		return s.info, req
	}
}

// mirror uploads an artifact when a bucket is configured. Failures are logged
// and swallowed: local artifacts are the source of truth.
func (s *Service) mirror(ctx context.Context, artifact string) {
	if s.uploader == nil {
		return
	}

	// Preserve the local layout under the bucket root when the artifact
	// lives inside the output tree; fall back to a flat name otherwise.
	object := filepath.Base(artifact)
	outputRoot, err := filepath.Abs(s.cfg.Output.Dir)
	if err == nil {
		if rel, relErr := filepath.Rel(outputRoot, artifact); relErr == nil && !strings.HasPrefix(rel, "..") {
			object = filepath.ToSlash(rel)
		}
	}

	if err := s.uploader.Upload(ctx, artifact, object); err != nil {
		slog.Warn("Artifact upload failed, keeping local copy", "artifact", artifact, "error", err)
	}
}

func validateStages(stages []int) error {
	if len(stages) == 0 {
		return &ConfigError{Reason: "no stages selected"}
	}
	prev := 0
	for _, n := range stages {
		if n < StageInfo || n > StageAudio {
			return &ConfigError{Reason: fmt.Sprintf("unknown stage %d", n)}
		}
		if n <= prev {
			return &ConfigError{Reason: "stages must be ascending and unique"}
		}
		prev = n
	}
	return nil
}
