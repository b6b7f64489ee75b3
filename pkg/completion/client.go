package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/careprep/ai-service/pkg/logger"
	"github.com/careprep/ai-service/pkg/metrics"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "mistralai/mistral-7b-instruct"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

var (
	// ErrNotConfigured is returned when no API key is set. It is a
	// capability-absent state, not a failure.
	ErrNotConfigured = errors.New("completion: api key not configured")
	// ErrEmptyResponse is returned when the endpoint answered 2xx without choices.
	ErrEmptyResponse = errors.New("completion: response contained no choices")
	// ErrExhausted is returned when every attempt failed.
	ErrExhausted = errors.New("completion: attempts exhausted")
)

// Message is a single chat message. Role is one of system, user or assistant.
type Message struct {
	Role    string
	Content string
}

// Request is one completion exchange.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// UserPrompt builds a request carrying a single user message.
func UserPrompt(prompt string, temperature float32, maxTokens int) Request {
	return Request{
		Messages:    []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// Completer returns the text of a completion. Any error means the caller
// should use its fallback.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the remote endpoint and the retry policy.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	Referer     string
	Title       string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Model:       DefaultModel,
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Referer:     "https://careprep-ai.local",
		Title:       "CarePrep AI",
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the default SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client calls an OpenAI compatible chat completion endpoint with retries.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	cfg        Config
	api        chatAPI
	httpClient *http.Client
	sleep      SleepFunc
	log        *logger.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

// WithSleep replaces the wait between attempts.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient sets the HTTP client; its Timeout is kept as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient constructs a Client. Zero config values take their defaults;
// inject WithSleep to avoid waiting between attempts.
func NewClient(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Referer == "" {
		cfg.Referer = def.Referer
	}
	if cfg.Title == "" {
		cfg.Title = def.Title
	}

	c := &Client{
		cfg:   cfg,
		sleep: ContextSleep,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	} else {
		// Copy so the caller's client keeps its own transport.
		hc := *c.httpClient
		c.httpClient = &hc
	}
	c.httpClient.Transport = newHeaderTransport(c.httpClient.Transport, map[string]string{
		"HTTP-Referer": cfg.Referer,
		"X-Title":      cfg.Title,
	})

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(oc)

	return c
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends req and returns the first choice's content.
//
// A 429 waits BaseDelay*2^attempt before the next attempt; timeouts,
// transport errors and any other non-2xx status wait BaseDelay. A 2xx
// reply without choices is not retried.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Available() {
		c.log.Debug("completion skipped, no api key configured")
		return "", ErrNotConfigured
	}

	start := time.Now()
	chatReq := c.buildRequest(req)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				c.metrics.ObserveAttempt(metrics.OutcomeEmpty)
				c.metrics.ObserveResult("empty_response", time.Since(start))
				c.log.Warn("unexpected completion response format", "id", resp.ID, "model", resp.Model)
				return "", ErrEmptyResponse
			}
			c.metrics.ObserveAttempt(metrics.OutcomeSuccess)
			c.metrics.ObserveResult("ok", time.Since(start))
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.ObserveResult("cancelled", time.Since(start))
			return "", fmt.Errorf("%w: %v", ErrExhausted, ctxErr)
		}

		outcome := classify(err)
		c.metrics.ObserveAttempt(outcome)

		wait := c.cfg.BaseDelay
		if outcome == metrics.OutcomeRateLimited {
			wait = c.cfg.BaseDelay * time.Duration(1<<attempt)
			c.log.Warn("completion rate limited", "attempt", attempt+1, "wait", wait.String())
		} else {
			c.log.Error(err, "completion attempt failed", "attempt", attempt+1, "outcome", outcome)
		}

		if attempt == c.cfg.MaxAttempts-1 {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			c.metrics.ObserveResult("cancelled", time.Since(start))
			return "", fmt.Errorf("%w: %v", ErrExhausted, err)
		}
	}

	c.metrics.ObserveResult("exhausted", time.Since(start))
	return "", fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.cfg.MaxAttempts, lastErr)
}

func (c *Client) buildRequest(req Request) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

// StatusCode extracts the HTTP status carried by a go-openai error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classify(err error) string {
	switch status := StatusCode(err); {
	case status == http.StatusTooManyRequests:
		return metrics.OutcomeRateLimited
	case status != 0:
		return metrics.OutcomeHTTPError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeTransportError
}
