package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/liamtostring/schegen/models"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com/v1"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-sonnet-4-5"
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Anthropic calls the Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewAnthropic(cfg ModelConfig) *Anthropic {
	a := &Anthropic{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, model: cfg.Model, client: cfg.Client}
	if a.baseURL == "" {
		a.baseURL = anthropicBaseURL
	}
	if a.model == "" {
		a.model = anthropicDefaultModel
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: DefaultTimeout}
	}
	return a
}

func (a *Anthropic) Name() string { return ProviderAnthropic }

func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", models.ErrLLMUnavailable)
	}
	req := anthropicRequest{
		Model:     a.model,
		MaxTokens: defaultMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, a.client, strings.TrimSuffix(a.baseURL, "/")+"/messages", headers, req, &resp); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from Anthropic API (stop reason %q)", resp.StopReason)
	}
	return b.String(), nil
}
