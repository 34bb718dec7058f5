// ABOUTME: Classification client performing one schema-constrained model round trip
// ABOUTME: Builds the instruction prompt, calls the provider, and parses the reply
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/models"
)

const (
	// ProviderOpenAI talks to api.openai.com or any OpenAI-compatible endpoint
	ProviderOpenAI = "openai"
	// ProviderGemini talks to the Gemini API
	ProviderGemini = "gemini"

	// DefaultOpenAIModel is the default chat model for the openai provider
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultGeminiModel is the default model for the gemini provider
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultTimeout bounds a single round trip
	DefaultTimeout = 30 * time.Second
)

// Response formats requested from the provider
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// ClientConfig holds configuration for the classification client
type ClientConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	ResponseFormat string
	Temperature    float32
	// Timeout bounds each Classify call; zero leaves only ctx as the bound
	Timeout time.Duration
}

// DefaultConfig returns the default OpenAI configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		Provider:       ProviderOpenAI,
		APIKey:         apiKey,
		Model:          DefaultOpenAIModel,
		ResponseFormat: FormatText,
		Temperature:    0.1,
		Timeout:        DefaultTimeout,
	}
}

// completer performs one system+user exchange and returns the raw reply text
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// Client classifies free-text shape descriptions. It never retries.
type Client struct {
	provider completer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClient creates a client for the configured provider
func NewClient(ctx context.Context, config *ClientConfig, logger *zap.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("nil client config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.ResponseFormat {
	case "", FormatText, FormatJSONObject, FormatJSONSchema:
	default:
		return nil, fmt.Errorf("unknown response format %q", config.ResponseFormat)
	}

	var (
		provider completer
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", ProviderOpenAI:
		provider, err = newOpenAIProvider(config)
	case ProviderGemini:
		provider, err = newGeminiProvider(ctx, config)
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Client{
		provider: provider,
		timeout:  config.Timeout,
		logger:   logger.Named("classifier"),
	}, nil
}

// SystemPrompt is the instruction sent ahead of every user prompt
func SystemPrompt() string {
	return "You classify the user's description of a shape. " +
		"Respond only with a single JSON object containing exactly the fields valid, error, shape and count, " +
		"with no commentary and no markdown. " +
		"Set valid to false and explain why in error when the description does not ask for a shape. " +
		"The object must follow this JSON schema: " + models.SchemaDescription()
}

// Classify sends prompt to the model and decodes the reply. Transport and
// provider failures return *RequestError; non-conforming replies return
// *DecodeError.
func (c *Client) Classify(ctx context.Context, prompt string) (*models.ClassificationResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.provider.complete(ctx, SystemPrompt(), prompt)
	if err != nil {
		c.logger.Warn("classification request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &RequestError{Err: err}
	}

	c.logger.Debug("model reply received",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("reply", text))

	result, err := Parse(text)
	if err != nil {
		c.logger.Warn("model reply did not match schema", zap.Error(err))
		return nil, err
	}

	return result, nil
}
