package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/time/rate"

	"github.com/liamtostring/schegen/logger"
	"github.com/liamtostring/schegen/metrics"
	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

// Client adds a per-call timeout, rate limiting and bounded retries on
// transient failures to a Model.
type Client struct {
	model   Model
	limiter *rate.Limiter
	retry   utils.RetryConfig
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

type ClientOption func(*Client)

// WithRateLimit allows rps calls per second. Zero disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithRetry(cfg utils.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = l.Component("ai") }
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func NewClient(m Model, opts ...ClientOption) *Client {
	c := &Client{
		model:   m,
		limiter: rate.NewLimiter(rate.Inf, 1),
		timeout: DefaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider names the wrapped model.
func (c *Client) Provider() string {
	if c == nil || c.model == nil {
		return ""
	}
	return c.model.Name()
}

// Generate returns the model's text reply to prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.model == nil {
		return "", models.ErrLLMUnavailable
	}

	start := time.Now()
	var text string
	err := utils.Retry(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		out, err := c.model.Generate(callCtx, prompt)
		if err != nil {
			c.log.Debug().Err(err).Str("provider", c.model.Name()).Msg("model call failed")
			return err
		}
		text = out
		return nil
	})
	c.metrics.RecordAICall(c.model.Name(), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.model.Name(), err)
	}
	return text, nil
}

// GenerateJSON asks for a reply and extracts the JSON document from it.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}

// ExtractJSON pulls the first JSON object or array out of a model reply.
// Markdown fences and surrounding prose are dropped and malformed JSON is
// repaired when possible.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := stripFences(text)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON in model reply", models.ErrInvalidInput)
	}
	s = s[start:]
	if end := strings.LastIndexAny(s, "}]"); end >= 0 {
		if candidate := s[:end+1]; json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to repair JSON: %v", models.ErrInvalidInput, err)
	}
	if !json.Valid([]byte(repaired)) {
		return nil, fmt.Errorf("%w: repaired JSON is still invalid", models.ErrInvalidInput)
	}
	return json.RawMessage(repaired), nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	s = s[i+3:]
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if j := strings.LastIndex(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}
