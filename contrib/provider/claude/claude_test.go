package claude

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "missing model", mutate: func(c *Config) { c.Model = " " }, wantErr: true},
		{name: "temperature above one", mutate: func(c *Config) { c.Temperature = 1.5 }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *Config) { c.MaxTokens = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("key", "")
			tt.mutate(cfg)
			_, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateLive(t *testing.T) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}
	p, err := New(DefaultConfig(key, os.Getenv("ANTHROPIC_BASE_URL")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := p.Generate(context.Background(), "Reply with the single word: ready")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected non-empty reply")
	}
}
