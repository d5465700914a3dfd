// Package gemini synthesizes speech through the Gemini TTS models.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"guidecast/internal/tts"
)

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// Synthesize streams audio chunks for the given text and returns them as one
// complete file body. Raw PCM responses are framed as WAV; container formats
// (mp3 and friends) pass through untouched.
func (c *Client) Synthesize(ctx context.Context, req tts.SynthesisRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Speed != 0 && req.Speed != 1.0 {
		// The provider accepts but does not apply a speaking rate yet.
		slog.Warn("Speed parameter is not applied by the provider", "speed", req.Speed)
	}

	config := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr[float32](1),
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: req.Voice,
				},
			},
		},
	}

	var audio []byte
	var mimeType string

	for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Text), config) {
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			audio = append(audio, part.InlineData.Data...)
			if mimeType == "" {
				mimeType = part.InlineData.MIMEType
			}
		}
	}

	if len(audio) == 0 {
		return nil, tts.ErrEmptyResponse
	}

	if strings.HasPrefix(mimeType, "audio/L") {
		audio = tts.WrapWAV(audio, mimeType)
	}

	return audio, nil
}
