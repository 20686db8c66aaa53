package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flowsight/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

const analysisPrompt = `You are analyzing a screenshot of a developer's screen.
Respond with JSON only, using this exact schema:
{"has_error": bool, "has_stack_trace": bool, "has_loading_indicator": bool, "description": string, "confidence": number}
has_error: an error message, red squiggle, or failure dialog is visible.
has_stack_trace: a stack trace or traceback is visible.
has_loading_indicator: a spinner, progress bar, or "loading" text is visible.
description: one factual sentence about what is on screen.
confidence: how certain you are overall, 0 to 1.`

// Config captures the runtime settings required to talk to the vision model.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Result is the vision classifier verdict for a single frame.
type Result struct {
	HasError            bool    `json:"has_error"`
	HasStackTrace       bool    `json:"has_stack_trace"`
	HasLoadingIndicator bool    `json:"has_loading_indicator"`
	Description         string  `json:"description"`
	Confidence          float64 `json:"confidence"`
}

// Client wraps an Ollama-compatible vision model endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a vision client using the supplied configuration.
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
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images"`
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

// Analyze classifies the frame for blocker indicators.
func (c *Client) Analyze(ctx context.Context, image []byte) (Result, error) {
	var empty Result
	if c.cfg.BaseURL == "" || c.cfg.Model == "" {
		return empty, services.Wrap(services.ErrConfiguration, "vision", "analyze", "model not configured", nil)
	}
	if len(image) == 0 {
		return empty, services.Wrap(services.ErrExternalTool, "vision", "analyze", "empty frame", nil)
	}

	payload := generateRequest{
		Model:   c.cfg.Model,
		Prompt:  analysisPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
		Stream:  false,
		Format:  "json",
		Options: generateOptions{Temperature: 0.3, NumPredict: 200},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "vision", "analyze", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "vision", "analyze", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, services.Classify(fmt.Errorf("vision analyze: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "vision", "analyze", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, services.Wrap(services.ErrUnavailable, "vision", "analyze", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var outer generateResponse
	if err := json.Unmarshal(data, &outer); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "vision", "analyze", "parse response", err)
	}
	if outer.Error != "" {
		return empty, services.Wrap(services.ErrExternalTool, "vision", "analyze", outer.Error, nil)
	}

	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(outer.Response)), &result); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "vision", "analyze", "parse verdict", err)
	}
	result.Description = strings.TrimSpace(result.Description)
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}
