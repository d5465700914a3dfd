// Package openai talks to the OpenAI API directly: the Responses endpoint
// for tool-augmented retrieval, Chat Completions for script generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"guidecast/internal/llm"
	"guidecast/pkg/prompts"
)

const (
	baseURL = "https://api.openai.com/v1"
	timeout = 180 * time.Second
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

type option func(*Client)

func withBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(apiKey string) llm.Client {
	return newClient(apiKey)
}

func newClient(apiKey string, opts ...option) *Client {
	c := &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) RetrieveInfo(ctx context.Context, req llm.InfoRequest) (string, error) {
	input, err := req.Template.RenderInfo(prompts.InfoParams{Keyword: req.Keyword})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	if req.Template.APIType == prompts.APITypeChat {
		return c.chat(ctx, req.Model, req.Template.SystemText(), input, 0)
	}
	return c.responses(ctx, req.Model, req.Template.SystemText(), input, req.Template.Tools)
}

func (c *Client) GenerateScript(ctx context.Context, req llm.ScriptRequest) (string, error) {
	userPrompt, err := req.Template.RenderScript(prompts.ScriptParams{
		Keyword:     req.Keyword,
		InfoContent: req.InfoContent,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.chat(ctx, req.Model, req.Template.SystemText(), userPrompt, req.Temperature)
}

type responsesRequest struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions,omitempty"`
	Input        string           `json:"input"`
	Tools        []map[string]any `json:"tools,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (c *Client) responses(ctx context.Context, model, instructions, input string, tools []map[string]any) (string, error) {
	body, err := c.post(ctx, "/responses", responsesRequest{
		Model:        model,
		Instructions: instructions,
		Input:        input,
		Tools:        tools,
	})
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var text strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				text.WriteString(part.Text)
			}
		}
	}

	if text.Len() == 0 {
		return "", llm.ErrEmptyResponse
	}
	return text.String(), nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, model, systemPrompt, userPrompt string, temperature float64) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}

	body, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: %s - %s", resp.Status, string(body))
	}
	return body, nil
}
