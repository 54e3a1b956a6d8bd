package enricher

import (
	"github.com/sweetpotato0/docqa/middleware"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds data to the middleware context before the call.
type ContextEnricher struct {
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{enricher: enricher}
}

// WithMetadata returns an enricher that stamps fixed key/value pairs, such
// as provider and model names, onto every call.
func WithMetadata(kv map[string]any) *ContextEnricher {
	return NewContextEnricher(func(c *middleware.Context) error {
		for k, v := range kv {
			c.Metadata[k] = v
		}
		return nil
	})
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return "ContextEnricher"
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if ctx.Metadata == nil {
			ctx.Metadata = make(map[string]any)
		}
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
