package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiConfig defines configuration options for the Gemini generator.
type GeminiConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// GeminiGenerator calls the generateContent endpoint of the Gemini API.
type GeminiGenerator struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiGenerator builds a Gemini generator. The key travels as the `key` query parameter.
func NewGeminiGenerator(cfg GeminiConfig) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("gemini endpoint is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &GeminiGenerator{client: client, endpoint: cfg.Endpoint, apiKey: cfg.APIKey}, nil
}

// Name identifies the generator in metrics and logs.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate sends a single generateContent request and returns the first candidate's text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&out).
		Post(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini api error: status %d", resp.StatusCode())
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
