package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"flowsight/internal/services"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second
)

// Config captures the runtime settings required to talk to the language model.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Request carries the context handed to the model for one blocker judgment.
type Request struct {
	OCRText            string
	WindowName         string
	ActivityDurationMs int64
	RecentCategories   []string
}

// Analysis is the model's judgment for a single detection attempt.
type Analysis struct {
	Category        string  `json:"category"`
	Severity        string  `json:"severity"`
	SuggestedAction string  `json:"suggested_action"`
	Confidence      float64 `json:"confidence"`
}

// Client wraps an Ollama-compatible text model endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryMaxAttempts = attempts
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// AnalyzeBlocker asks the model whether the supplied screen context indicates
// the developer is blocked.
func (c *Client) AnalyzeBlocker(ctx context.Context, req Request) (Analysis, error) {
	var empty Analysis
	if c.cfg.BaseURL == "" || c.cfg.Model == "" {
		return empty, services.Wrap(services.ErrConfiguration, "llm", "analyze", "model not configured", nil)
	}

	content, err := c.generateWithRetry(ctx, buildUserPrompt(req))
	if err != nil {
		return empty, err
	}

	var parsed Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "llm", "analyze", "parse payload", err)
	}
	parsed.Category = strings.ToLower(strings.TrimSpace(parsed.Category))
	parsed.Severity = strings.ToLower(strings.TrimSpace(parsed.Severity))
	parsed.SuggestedAction = strings.TrimSpace(parsed.SuggestedAction)
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
	return parsed, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(BlockerAnalysisPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Window: %s\n", strings.TrimSpace(req.WindowName))
	fmt.Fprintf(&b, "Time on this window: %d seconds\n", req.ActivityDurationMs/1000)
	if len(req.RecentCategories) > 0 {
		fmt.Fprintf(&b, "Recent blocker categories: %s\n", strings.Join(req.RecentCategories, ", "))
	}
	b.WriteString("Screen text:\n")
	b.WriteString(truncate(req.OCRText, 4000))
	return b.String()
}

// truncate cuts text at a rune boundary so the prompt stays valid UTF-8.
func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: generateOptions{Temperature: 0, NumPredict: 200},
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		content, err := c.generateOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !shouldRetry(err) || attempt == c.retryMaxAttempts {
			return "", err
		}
		if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("llm generate: failed after %d attempts: %w", c.retryMaxAttempts, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", "generate", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "llm", "generate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Classify(fmt.Errorf("llm generate: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", "generate", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable {
			marker = services.ErrUnavailable
		}
		return "", services.Wrap(marker, "llm", "generate", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var outer generateResponse
	if err := json.Unmarshal(data, &outer); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "llm", "generate", "parse response", err)
	}
	if outer.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "llm", "generate", outer.Error, nil)
	}
	if strings.TrimSpace(outer.Response) == "" {
		return "", services.Wrap(services.ErrExternalTool, "llm", "generate", "empty response", nil)
	}
	return outer.Response, nil
}

func shouldRetry(err error) bool {
	return errors.Is(err, services.ErrTransient) || errors.Is(err, services.ErrUnavailable)
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryBaseDelay << (attempt - 1)
	if delay > c.retryMaxDelay {
		delay = c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.sleeper != nil {
		c.sleeper(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
