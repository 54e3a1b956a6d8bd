package validator

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/docqa/middleware"
)

// ValidatorFunc validates a prompt before it is sent.
type ValidatorFunc func(prompt string) error

// FilterFunc transforms generated output.
type FilterFunc func(output string) (string, error)

// PromptValidator rejects prompts before they reach the provider.
type PromptValidator struct {
	validator ValidatorFunc
}

// NewPromptValidator creates a prompt validation middleware
func NewPromptValidator(validator ValidatorFunc) *PromptValidator {
	return &PromptValidator{validator: validator}
}

// MaxChars returns a ValidatorFunc rejecting empty prompts and prompts
// longer than limit runes.
func MaxChars(limit int) ValidatorFunc {
	return func(prompt string) error {
		if strings.TrimSpace(prompt) == "" {
			return fmt.Errorf("%w: empty prompt", middleware.ErrInvalidPrompt)
		}
		if n := len([]rune(prompt)); limit > 0 && n > limit {
			return fmt.Errorf("%w: %d chars exceeds limit %d", middleware.ErrInvalidPrompt, n, limit)
		}
		return nil
	}
}

// Name returns the middleware name
func (m *PromptValidator) Name() string {
	return "PromptValidator"
}

// Execute validates the prompt
func (m *PromptValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.validator != nil {
		if err := m.validator(ctx.Prompt); err != nil {
			return err
		}
	}
	return next(ctx)
}

// OutputFilter transforms generated output after a successful call.
type OutputFilter struct {
	filter FilterFunc
}

// NewOutputFilter creates an output filtering middleware
func NewOutputFilter(filter FilterFunc) *OutputFilter {
	return &OutputFilter{filter: filter}
}

// TrimSpace is a FilterFunc stripping surrounding whitespace.
func TrimSpace(output string) (string, error) {
	return strings.TrimSpace(output), nil
}

// Name returns the middleware name
func (m *OutputFilter) Name() string {
	return "OutputFilter"
}

// Execute filters the output
func (m *OutputFilter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if m.filter == nil {
		return nil
	}
	out, err := m.filter(ctx.Output)
	if err != nil {
		return err
	}
	ctx.Output = out
	return nil
}
