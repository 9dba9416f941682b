// Package llm talks to an OpenAI-compatible chat completion API, by default
// OpenRouter.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "mistralai/devstral-2512:free"
)

var ErrEmptyResponse = errors.New("language model returned no choices")

type Config struct {
	APIKey  string `yaml:"api_key" envconfig:"OPENROUTER_API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"OPENROUTER_BASE_URL"`
	Model   string `yaml:"model" envconfig:"LLM_MODEL"`

	// Temperature is only sent when positive; otherwise the provider
	// default applies.
	Temperature float64 `yaml:"temperature" envconfig:"LLM_TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" envconfig:"LLM_MAX_TOKENS"`
}

func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, Model: DefaultModel}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY must be set")
	}
	if c.Model == "" {
		return errors.New("LLM_MODEL must be set")
	}
	return nil
}

// Client sends one system and one user message per call.
type Client struct {
	model   llms.Model
	options []llms.CallOption
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	return NewClientWithModel(model, cfg), nil
}

// NewClientWithModel wraps an existing langchaingo model.
func NewClientWithModel(model llms.Model, cfg Config) *Client {
	var opts []llms.CallOption
	if cfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	return &Client{model: model, options: opts}
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	resp, err := c.model.GenerateContent(ctx, content, c.options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
