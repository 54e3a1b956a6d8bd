package agent

import "context"

// Generator is the text-generation capability consumed by the pipeline agents.
// Implementations make exactly one synchronous model call per Generate.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function into a Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Pick returns primary when set, fallback otherwise.
func Pick(primary, fallback Generator) Generator {
	if primary != nil {
		return primary
	}
	return fallback
}
