// Package llm defines the text-generation surface the pipeline stages call.
// Two request shapes exist: a tool-augmented retrieval call for gathering
// source material, and a plain chat call for turning that material into a
// narration script.
package llm

import (
	"context"
	"errors"

	"guidecast/pkg/prompts"
)

// ErrEmptyResponse reports a call that nominally succeeded but returned no
// usable text. Distinct from transport failures: it points at a provider
// contract problem, not something a retry fixes by itself.
var ErrEmptyResponse = errors.New("empty response from provider")

type InfoRequest struct {
	Keyword  string
	Model    string
	Template *prompts.Template
}

type ScriptRequest struct {
	Keyword     string
	InfoContent string
	Model       string
	Temperature float64
	Template    *prompts.Template
}

type Client interface {
	// RetrieveInfo gathers background material for a keyword. Templates
	// tagged api_type: responses may attach tool definitions (web search).
	RetrieveInfo(ctx context.Context, req InfoRequest) (string, error)

	// GenerateScript turns retrieved material into a narration script.
	GenerateScript(ctx context.Context, req ScriptRequest) (string, error)
}
