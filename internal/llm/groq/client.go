// Package groq serves both pipeline request shapes through Groq chat
// completions. Groq has no tool-augmented responses endpoint, so templates
// tagged for it degrade to a plain chat call; any declared tools are ignored.
package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"guidecast/internal/llm"
	"guidecast/pkg/prompts"
)

type Client struct {
	client *groq.Client
}

func NewClient(apiKey string) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) RetrieveInfo(ctx context.Context, req llm.InfoRequest) (string, error) {
	input, err := req.Template.RenderInfo(prompts.InfoParams{Keyword: req.Keyword})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.generate(ctx, req.Model, req.Template.SystemText(), input, 0)
}

func (c *Client) GenerateScript(ctx context.Context, req llm.ScriptRequest) (string, error) {
	userPrompt, err := req.Template.RenderScript(prompts.ScriptParams{
		Keyword:     req.Keyword,
		InfoContent: req.InfoContent,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.generate(ctx, req.Model, req.Template.SystemText(), userPrompt, req.Temperature)
}

func (c *Client) generate(ctx context.Context, model, systemPrompt, userPrompt string, temperature float64) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model:       groq.ChatModel(model),
		Temperature: float32(temperature),
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
