// Package guide orchestrates the three pipeline stages over single keywords
// and whole track configurations.
package guide

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"guidecast/internal/llm"
	"guidecast/internal/llm/groq"
	"guidecast/internal/llm/openai"
	"guidecast/internal/retry"
	"guidecast/internal/stage"
	"guidecast/internal/storage"
	"guidecast/internal/tts"
	"guidecast/internal/tts/gemini"
	"guidecast/pkg/config"
)

// Service holds the three stage executors and shared infrastructure.
type Service struct {
	cfg      *config.Config
	info     *stage.Executor
	script   *stage.Executor
	audio    *stage.Executor
	uploader *storage.Uploader
}

// ServiceOptions carries the dependencies Service composes. A nil LLM or TTS
// client is allowed: the matching stages fail their credential check before
// ever dereferencing it, and dry runs never reach it at all.
type ServiceOptions struct {
	Config   *config.Config
	LLM      llm.Client
	TTS      tts.Provider
	Uploader *storage.Uploader
}

func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config
	policy := retryPolicy(cfg.Retry)
	credName, credKey := llmCredential(cfg)

	return &Service{
		cfg: cfg,
		info: stage.NewInfo(stage.InfoOptions{
			Client:         opts.LLM,
			APIKey:         credKey,
			CredentialName: credName,
			PromptsDir:     cfg.Prompts.Dir,
			Retry:          policy,
		}),
		script: stage.NewScript(stage.ScriptOptions{
			Client:         opts.LLM,
			APIKey:         credKey,
			CredentialName: credName,
			PromptsDir:     cfg.Prompts.Dir,
			Retry:          policy,
		}),
		audio: stage.NewAudio(stage.AudioOptions{
			Provider:       opts.TTS,
			APIKey:         cfg.GeminiAPIKey,
			CredentialName: "GEMINI_API_KEY",
			Retry:          policy,
		}),
		uploader: opts.Uploader,
	}
}

// BuildService wires provider clients from configuration. Clients whose
// credentials are absent stay nil; production runs against them fail fast at
// the credential check instead.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	var llmClient llm.Client
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.OpenAIAPIKey != "" {
			llmClient = openai.NewClient(cfg.OpenAIAPIKey)
		}
	case "groq":
		if cfg.GroqAPIKey != "" {
			client, err := groq.NewClient(cfg.GroqAPIKey)
			if err != nil {
				return nil, fmt.Errorf("build groq client: %w", err)
			}
			llmClient = client
		}
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown llm provider %q", cfg.LLM.Provider)}
	}

	var provider tts.Provider
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("build gemini client: %w", err)
		}
		provider = client
	}

	var uploader *storage.Uploader
	if cfg.GCS.Enabled && cfg.GCSBucket != "" {
		up, err := storage.NewUploader(ctx, cfg.GCSBucket, cfg.GCS.ArtifactRoot)
		if err != nil {
			// Mirroring is an extra, never a blocker.
			slog.Warn("Artifact mirroring unavailable", "error", err)
		} else {
			uploader = up
		}
	}

	return NewService(ServiceOptions{
		Config:   cfg,
		LLM:      llmClient,
		TTS:      provider,
		Uploader: uploader,
	}), nil
}

// Close releases held clients.
func (s *Service) Close() error {
	if s.uploader != nil {
		return s.uploader.Close()
	}
	return nil
}

func retryPolicy(rc config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: rc.MaxRetries,
		InitialWait: time.Duration(rc.InitialWait * float64(time.Second)),
		MaxWait:     time.Duration(rc.MaxWait * float64(time.Second)),
		Multiplier:  2.0,
	}
}

func llmCredential(cfg *config.Config) (name, key string) {
	if cfg.LLM.Provider == "groq" {
		return "GROQ_API_KEY", cfg.GroqAPIKey
	}
	return "OPENAI_API_KEY", cfg.OpenAIAPIKey
}
