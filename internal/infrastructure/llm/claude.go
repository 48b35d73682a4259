package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"hnbriefs/internal/config"
	"hnbriefs/internal/ports"
)

const (
	maxTokens          = 4096
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
)

const systemPrompt = "You analyze HackerNews items for technical trend insight. " +
	"Always answer with a single valid JSON object and nothing else."

// ClaudeClient implements ports.ModelClient backed by the Anthropic
// messages API.
type ClaudeClient struct {
	client      *anthropic.Client
	model       anthropic.Model
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

var _ ports.ModelClient = (*ClaudeClient)(nil)

// Option customizes the client.
type Option func(*ClaudeClient)

// WithRetry overrides the retry policy.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *ClaudeClient) {
		c.maxAttempts = attempts
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *ClaudeClient) {
		c.sleeper = sleeper
	}
}

// NewClaudeClient builds a client from configuration.
func NewClaudeClient(cfg config.AnthropicConfig, opts ...Option) *ClaudeClient {
	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.AuthToken)}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(requestOpts...)

	c := &ClaudeClient{
		client:      &client,
		model:       anthropic.Model(cfg.Model),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 1
	}
	return c
}

// Complete sends the prompt and returns the model's assembled text reply.
func (c *ClaudeClient) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("model complete: prompt required")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		reply, err := c.sendOnce(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("model complete: failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *ClaudeClient) sendOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("anthropic request: empty content")
	}

	var b strings.Builder
	for _, block := range resp.Content {
		b.WriteString(block.Text)
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", errors.New("anthropic request: blank reply")
	}
	return reply, nil
}

func (c *ClaudeClient) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		if delay > c.maxDelay/2 {
			return c.maxDelay
		}
		delay *= 2
	}
	if c.maxDelay > 0 && delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func (c *ClaudeClient) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
