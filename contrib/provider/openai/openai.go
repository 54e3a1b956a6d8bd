package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	System      string
	MaxTokens   int64
	Temperature float64
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithModel set model.
func (cfg *Config) WithModel(model string) *Config {
	if model != "" {
		cfg.Model = model
	}
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       string(openai.ChatModelGPT4oMini),
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	return config.ValidateLLMConfig(cfg.APIKey, cfg.Model, cfg.Temperature, int(cfg.MaxTokens))
}

// Provider makes one chat completion call per Generate.
type Provider struct {
	config *Config
	client openai.Client
}

var _ agent.Generator = (*Provider)(nil)

// New creates a new OpenAI provider using official SDK
func New(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: openai config is nil", docerrors.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("openai provider: %w", err)
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		config: cfg,
		client: openai.NewClient(options...),
	}, nil
}

// Generate sends prompt as a single user message and returns the reply text.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: messages(p.config.System, prompt),
		Model:    openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.config.MaxTokens)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned from OpenAI", docerrors.ErrGeneration)
	}
	return completion.Choices[0].Message.Content, nil
}

func messages(system, prompt string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(system) != "" {
		out = append(out, openai.SystemMessage(system))
	}
	return append(out, openai.UserMessage(prompt))
}
