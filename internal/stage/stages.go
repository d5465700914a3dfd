package stage

import (
	"context"
	"fmt"

	"guidecast/internal/llm"
	"guidecast/internal/metadata"
	"guidecast/internal/retry"
	"guidecast/internal/staging"
	"guidecast/internal/tts"
	"guidecast/pkg/prompts"
)

// Stage names, also used as the pipeline field in metadata sidecars.
const (
	NameInfo   = prompts.PipelineInfo
	NameScript = prompts.PipelineScript
	NameAudio  = "audio_synthesis"
)

// InfoOptions configures the info-retrieval stage.
type InfoOptions struct {
	Client         llm.Client
	APIKey         string
	CredentialName string // env var name, for the error message
	PromptsDir     string
	Retry          retry.Policy
}

// NewInfo builds the stage that gathers background material for a keyword.
func NewInfo(opts InfoOptions) *Executor {
	return &Executor{
		Name:  NameInfo,
		Retry: opts.Retry,
		OutputPath: func(req Request) string {
			return staging.InfoPath(req.OutputDir, req.Keyword, req.OutputName)
		},
		Credential: credentialCheck(opts.APIKey, opts.CredentialName),
		Generate: func(ctx context.Context, req Request, _ string) ([]byte, error) {
			tmpl, err := prompts.Load(opts.PromptsDir, prompts.PipelineInfo, req.PromptVersion)
			if err != nil {
				return nil, err
			}
			text, err := opts.Client.RetrieveInfo(ctx, llm.InfoRequest{
				Keyword:  req.Keyword,
				Model:    req.Model,
				Template: tmpl,
			})
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		},
		Placeholder: infoPlaceholder,
		Metadata: func(req Request) metadata.Record {
			return metadata.Record{
				Model: req.Model,
				Extra: map[string]any{"prompt_version": req.PromptVersion},
			}
		},
	}
}

// ScriptOptions configures the script-generation stage.
type ScriptOptions struct {
	Client         llm.Client
	APIKey         string
	CredentialName string
	PromptsDir     string
	Retry          retry.Policy
}

// NewScript builds the stage that turns retrieved material into a narration
// script. It reads the info stage's artifact as input.
func NewScript(opts ScriptOptions) *Executor {
	return &Executor{
		Name:  NameScript,
		Retry: opts.Retry,
		OutputPath: func(req Request) string {
			return staging.ScriptPath(req.OutputDir, req.Keyword, req.OutputName)
		},
		UpstreamPath: func(req Request) string {
			return staging.InfoPath(req.UpstreamDir, req.Keyword, req.OutputName)
		},
		Credential: credentialCheck(opts.APIKey, opts.CredentialName),
		Generate: func(ctx context.Context, req Request, upstream string) ([]byte, error) {
			tmpl, err := prompts.Load(opts.PromptsDir, prompts.PipelineScript, req.PromptVersion)
			if err != nil {
				return nil, err
			}
			text, err := opts.Client.GenerateScript(ctx, llm.ScriptRequest{
				Keyword:     req.Keyword,
				InfoContent: upstream,
				Model:       req.Model,
				Temperature: req.Temperature,
				Template:    tmpl,
			})
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		},
		Placeholder: scriptPlaceholder,
		Metadata: func(req Request) metadata.Record {
			return metadata.Record{
				Model: req.Model,
				Extra: map[string]any{
					"prompt_version": req.PromptVersion,
					"temperature":    req.Temperature,
				},
			}
		},
	}
}

// AudioOptions configures the audio-synthesis stage.
type AudioOptions struct {
	Provider       tts.Provider
	APIKey         string
	CredentialName string
	Retry          retry.Policy
}

// NewAudio builds the stage that narrates a finished script. It reads the
// script stage's artifact as input.
func NewAudio(opts AudioOptions) *Executor {
	return &Executor{
		Name:  NameAudio,
		Retry: opts.Retry,
		OutputPath: func(req Request) string {
			return staging.AudioPath(req.OutputDir, req.Keyword, req.OutputName)
		},
		UpstreamPath: func(req Request) string {
			return staging.ScriptPath(req.UpstreamDir, req.Keyword, req.OutputName)
		},
		Validate: func(req Request) error {
			return tts.SynthesisRequest{
				Model: req.Model,
				Voice: req.Voice,
				Speed: req.Speed,
			}.Validate()
		},
		Credential: credentialCheck(opts.APIKey, opts.CredentialName),
		Generate: func(ctx context.Context, req Request, upstream string) ([]byte, error) {
			return opts.Provider.Synthesize(ctx, tts.SynthesisRequest{
				Text:  upstream,
				Model: req.Model,
				Voice: req.Voice,
				Speed: req.Speed,
			})
		},
		Placeholder: audioPlaceholder,
		Metadata: func(req Request) metadata.Record {
			return metadata.Record{
				Model: req.Model,
				Extra: map[string]any{
					"voice": req.Voice,
					"speed": req.Speed,
				},
			}
		},
	}
}

func credentialCheck(apiKey, name string) func() error {
	return func() error {
		if apiKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, name)
		}
		return nil
	}
}
