// Package ai wraps generative-model HTTP APIs behind a single Model
// interface and turns their output into schema graphs.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	DefaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

// Model is an opaque text generator.
type Model interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelConfig selects and configures a provider adapter.
type ModelConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Client   *http.Client
}

// NewModel builds the adapter named by cfg.Provider. An empty provider or
// "none" yields ErrLLMUnavailable.
func NewModel(cfg ModelConfig) (Model, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderAnthropic, "claude":
		return NewAnthropic(cfg), nil
	case ProviderOpenAI, "gpt":
		return NewOpenAI(cfg), nil
	case "", "none", "off":
		return nil, models.ErrLLMUnavailable
	}
	return nil, fmt.Errorf("%w: unknown AI provider %q", models.ErrInvalidInput, cfg.Provider)
}

// postJSON sends body as JSON and decodes a 2xx response into out.
// Non-2xx responses become *utils.StatusError so retries can classify them.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &utils.StatusError{Code: res.StatusCode, Body: truncate(strings.TrimSpace(string(respBody)), 500)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error unmarshaling response body (status %d): %w", res.StatusCode, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
