package ocr

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

	"golang.org/x/text/language"

	"flowsight/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to talk to the OCR service.
type Config struct {
	Endpoint       string
	Languages      []string
	TimeoutSeconds int
}

// Result is the text extraction outcome for a single frame.
type Result struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Languages  []string `json:"languages"`
}

// Client wraps the HTTP OCR sidecar service.
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

// NewClient constructs an OCR client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			Languages:      normalizeLanguages(cfg.Languages),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Extract sends the frame to the OCR service and returns recognized text.
// An unreadable image is a normal outcome: the service reports empty text
// with confidence 0 and Extract returns it without error.
func (c *Client) Extract(ctx context.Context, image []byte) (Result, error) {
	var empty Result
	if c.cfg.Endpoint == "" {
		return empty, services.Wrap(services.ErrConfiguration, "ocr", "extract", "endpoint not configured", nil)
	}
	if len(image) == 0 {
		return empty, nil
	}

	endpoint := c.cfg.Endpoint
	if len(c.cfg.Languages) > 0 {
		endpoint += "?languages=" + strings.Join(c.cfg.Languages, ",")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "ocr", "extract", "build request", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, services.Classify(fmt.Errorf("ocr extract: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "ocr", "extract", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusServiceUnavailable {
			marker = services.ErrUnavailable
		}
		return empty, services.Wrap(marker, "ocr", "extract", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "ocr", "extract", "parse response", err)
	}
	result.Text = strings.TrimSpace(result.Text)
	result.Confidence = clampConfidence(result.Confidence)
	result.Languages = normalizeLanguages(result.Languages)
	return result, nil
}

// HealthCheck verifies the OCR service answers on its endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.Endpoint == "" {
		return errors.New("ocr health: endpoint not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("ocr health: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Classify(fmt.Errorf("ocr health: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return services.Wrap(services.ErrUnavailable, "ocr", "health", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

func clampConfidence(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}

// normalizeLanguages canonicalizes BCP 47 tags and drops anything unparseable.
func normalizeLanguages(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		tag, err := language.Parse(trimmed)
		if err != nil {
			continue
		}
		canonical := tag.String()
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
