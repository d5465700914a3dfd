// Package stage implements the single-shot pipeline stage: call an external
// generation service under a retry policy and persist the result, with a
// dry-run path that never touches the network.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"guidecast/internal/metadata"
	"guidecast/internal/retry"
)

var (
	// ErrMissingCredential reports an absent API credential. Checked before
	// the retry loop; retrying cannot conjure a key.
	ErrMissingCredential = errors.New("required API credential is not set")

	// ErrMissingUpstream reports that the artifact an earlier stage should
	// have produced is absent or blank.
	ErrMissingUpstream = errors.New("upstream artifact missing or empty")

	// ErrEmptyKeyword reports a blank keyword.
	ErrEmptyKeyword = errors.New("keyword must not be empty")
)

// Request carries one stage invocation. UpstreamDir is only read by stages
// that consume a previous stage's artifact.
type Request struct {
	Keyword     string
	OutputName  string
	OutputDir   string
	UpstreamDir string
	DryRun      bool

	Model         string
	Voice         string
	Speed         float64
	Temperature   float64
	PromptVersion string

	// MaxRetries, when positive, overrides the executor's retry budget for
	// this invocation.
	MaxRetries int
}

func (r Request) mode() string {
	if r.DryRun {
		return "dry_run"
	}
	return "production"
}

// Executor runs one pipeline stage. The three stages share this loop and
// differ only in the hooks supplied at construction.
type Executor struct {
	// Name identifies the stage in logs, errors, and metadata sidecars.
	Name string

	Retry retry.Policy

	// OutputPath computes the artifact destination.
	OutputPath func(req Request) string

	// UpstreamPath, when set, names the previous stage's artifact. Its
	// content is read from disk and handed to Generate; a missing or blank
	// file aborts the stage before any network activity.
	UpstreamPath func(req Request) string

	// Validate checks stage parameters locally. Runs before the credential
	// check and the retry loop; its errors are never retried.
	Validate func(req Request) error

	// Credential reports whether the required API credential is present.
	Credential func() error

	// Generate performs the external call. Every error it returns inside
	// the retry loop is retried; validation happened before the loop.
	Generate func(ctx context.Context, req Request, upstream string) ([]byte, error)

	// Placeholder produces the deterministic dry-run artifact.
	Placeholder func(req Request) []byte

	// Metadata builds the sidecar record for a finished artifact.
	Metadata func(req Request) metadata.Record
}

// Execute runs the stage and returns the absolute path of the artifact it
// wrote.
func (e *Executor) Execute(ctx context.Context, req Request) (string, error) {
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return "", ErrEmptyKeyword
	}

	slog.Info("Stage starting", "stage", e.Name, "keyword", req.Keyword, "mode", req.mode())

	upstream, err := e.readUpstream(req)
	if err != nil {
		return "", err
	}

	outputPath := e.OutputPath(req)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var content []byte
	if req.DryRun {
		content = e.Placeholder(req)
	} else {
		content, err = e.generate(ctx, req, upstream)
		if err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	e.recordMetadata(req, outputPath)

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		absPath = outputPath
	}
	slog.Info("Stage complete", "stage", e.Name, "artifact", absPath, "bytes", len(content))
	return absPath, nil
}

func (e *Executor) readUpstream(req Request) (string, error) {
	if e.UpstreamPath == nil {
		return "", nil
	}

	path := e.UpstreamPath(req)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingUpstream, path)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingUpstream, path)
	}
	return content, nil
}

func (e *Executor) generate(ctx context.Context, req Request, upstream string) ([]byte, error) {
	if e.Validate != nil {
		if err := e.Validate(req); err != nil {
			return nil, err
		}
	}
	if err := e.Credential(); err != nil {
		return nil, err
	}

	policy := e.Retry
	if req.MaxRetries > 0 {
		policy.MaxAttempts = req.MaxRetries
	}
	policy.OnBackoff = func(attempt int, wait time.Duration) {
		slog.Warn("Retrying after backoff", "stage", e.Name, "attempt", attempt, "wait", wait)
	}

	var content []byte
	err := retry.Do(ctx, policy, func() error {
		out, callErr := e.Generate(ctx, req, upstream)
		if callErr != nil {
			slog.Warn("Generation attempt failed", "stage", e.Name, "error", callErr)
			return callErr
		}
		content = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (e *Executor) recordMetadata(req Request, artifactPath string) {
	if e.Metadata == nil {
		return
	}
	rec := e.Metadata(req)
	rec.Keyword = req.Keyword
	rec.Pipeline = e.Name
	rec.Mode = req.mode()
	if err := metadata.Write(artifactPath, rec); err != nil {
		// Never fail a stage over a sidecar.
		slog.Warn("Metadata write failed, continuing", "stage", e.Name, "error", err)
	}
}
