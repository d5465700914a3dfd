// Package tts defines the speech-synthesis surface of the audio stage.
package tts

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidVoice reports a voice name outside the known set. Raised
	// before any network call.
	ErrInvalidVoice = errors.New("unknown voice")

	// ErrInvalidSpeed reports a speaking rate outside the accepted range.
	ErrInvalidSpeed = errors.New("speed out of range")

	// ErrInvalidModel reports a synthesis model outside the known set.
	ErrInvalidModel = errors.New("unknown synthesis model")

	// ErrEmptyResponse reports a synthesis call that completed without
	// yielding a single byte of audio.
	ErrEmptyResponse = errors.New("no audio data received")
)

// Speaking-rate bounds. The current provider accepts the parameter but does
// not apply it; the bounds still gate obviously bad input locally.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// knownVoices is the prebuilt voice set the provider documents.
var knownVoices = map[string]bool{
	"Zephyr":     true,
	"Puck":       true,
	"Charon":     true,
	"Kore":       true,
	"Fenrir":     true,
	"Leda":       true,
	"Orus":       true,
	"Aoede":      true,
	"Callirrhoe": true,
	"Autonoe":    true,
	"Enceladus":  true,
	"Iapetus":    true,
}

// knownModels is the synthesis model set the provider documents.
var knownModels = map[string]bool{
	"gemini-2.5-pro-preview-tts":   true,
	"gemini-2.5-flash-preview-tts": true,
}

type SynthesisRequest struct {
	Text  string
	Model string
	Voice string
	Speed float64
}

// Validate checks the request parameters locally, before any credential
// lookup or network activity.
func (r SynthesisRequest) Validate() error {
	if !knownVoices[r.Voice] {
		return fmt.Errorf("%w: %q", ErrInvalidVoice, r.Voice)
	}
	if !knownModels[r.Model] {
		return fmt.Errorf("%w: %q", ErrInvalidModel, r.Model)
	}
	if r.Speed != 0 && (r.Speed < MinSpeed || r.Speed > MaxSpeed) {
		return fmt.Errorf("%w: %.2f (want %.2f-%.2f)", ErrInvalidSpeed, r.Speed, MinSpeed, MaxSpeed)
	}
	return nil
}

type Provider interface {
	// Synthesize turns text into a complete audio file body. Streaming
	// providers accumulate every chunk before returning.
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}
