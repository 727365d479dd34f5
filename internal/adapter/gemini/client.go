// Package gemini implements domain.ForecastProvider on top of the Google
// Gen AI SDK's Gemini API backend.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/farm-weather-insights/internal/domain"
	"google.golang.org/genai"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.2
	maxOutputTokens    = 1024
)

// errEmptyAnswer is returned when the model replies without any text.
var errEmptyAnswer = errors.New("gemini returned no text")

// Client asks a Gemini model for farm weather forecasts.
type Client struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ domain.ForecastProvider = (*Client)(nil)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the underlying SDK client.
type Option func(*options)

// WithBaseURL points the client at a different API endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient replaces the SDK's default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// NewClient creates a Gemini forecast provider. timeout bounds each
// FetchForecast call; zero leaves the caller's context in charge.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  o.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		models:  client.Models,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// FetchForecast prompts the model for a forecast and returns its answer text
// unmodified.
func (c *Client) FetchForecast(ctx context.Context, location, date string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(domain.ForecastPrompt(location, date)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](defaultTemperature),
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyAnswer
	}

	c.logger.Debug("gemini forecast received", "model", c.model, "location", location, "date", date, "chars", len(text))
	return text, nil
}
