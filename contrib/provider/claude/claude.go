package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	System      string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Validate checks the configuration. Anthropic caps temperature at 1.
func (cfg *Config) Validate() error {
	if err := config.ValidateLLMConfig(cfg.APIKey, cfg.Model, cfg.Temperature, int(cfg.MaxTokens)); err != nil {
		return err
	}
	return config.NewValidator().ValidateFloatRange("temperature", cfg.Temperature, 0, 1).Error()
}

// Provider makes one Messages API call per Generate.
type Provider struct {
	config *Config
	client anthropic.Client
}

var _ agent.Generator = (*Provider)(nil)

// New creates a new Claude provider using official SDK
func New(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: claude config is nil", docerrors.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("claude provider: %w", err)
	}

	options := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithAuthToken(""),
	}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		config: cfg,
		client: anthropic.NewClient(options...),
	}, nil
}

// Generate sends prompt as a single user turn and returns the concatenated text blocks.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: p.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if strings.TrimSpace(p.config.System) != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.config.System}}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	var texts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: no text content returned from Claude", docerrors.ErrGeneration)
	}
	return strings.Join(texts, "\n"), nil
}
