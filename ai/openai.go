package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/liamtostring/schegen/models"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o-mini"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAI calls the Chat Completions API.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAI(cfg ModelConfig) *OpenAI {
	o := &OpenAI{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, model: cfg.Model, client: cfg.Client}
	if o.baseURL == "" {
		o.baseURL = openAIBaseURL
	}
	if o.model == "" {
		o.model = openAIDefaultModel
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: DefaultTimeout}
	}
	return o
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY is not set", models.ErrLLMUnavailable)
	}
	req := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp chatResponse
	if err := postJSON(ctx, o.client, strings.TrimSuffix(o.baseURL, "/")+"/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from OpenAI API")
	}
	return resp.Choices[0].Message.Content, nil
}
