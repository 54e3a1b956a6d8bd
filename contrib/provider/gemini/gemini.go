package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	System      string
	MaxTokens   int
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	return config.ValidateLLMConfig(cfg.APIKey, cfg.Model, float64(cfg.Temperature), cfg.MaxTokens)
}

// Provider wraps a genai generative model. Call Close when done.
type Provider struct {
	config *Config
	client *genai.Client
	model  *genai.GenerativeModel
}

var _ agent.Generator = (*Provider)(nil)

// New creates a new Gemini provider
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: gemini config is nil", docerrors.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gemini provider: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	if strings.TrimSpace(cfg.System) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(cfg.System)}}
	}

	return &Provider{config: cfg, client: client, model: model}, nil
}

// Generate returns the text parts of the first candidate.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	text := candidateText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text content returned from Gemini", docerrors.ErrGeneration)
	}
	return text, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
