package middleware

import (
	"context"

	"github.com/sweetpotato0/docqa/agent"
)

// Context carries one generation call through the middleware chain.
type Context struct {
	// Stage names the pipeline step issuing the call, e.g. "draft" or "critique".
	Stage string

	// Prompt sent to the generation service.
	Prompt string

	// Output returned by the generation service.
	Output string

	// Error from execution
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]any

	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, stage, prompt string) *Context {
	return &Context{
		Stage:    stage,
		Prompt:   prompt,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// SetContext replaces the context seen by downstream handlers.
func (c *Context) SetContext(ctx context.Context) {
	c.context = ctx
}

// Middleware intercepts generation calls.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic. Returning an error stops the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{middlewares: middlewares}
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Len returns the number of middlewares in the chain.
func (c *MiddlewareChain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.middlewares)
}

// Execute runs all middlewares in the chain
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	return c.executeMiddleware(ctx, 0, finalHandler)
}

func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

// Wrap returns a Generator that routes every call to gen through chain.
// An empty chain returns gen unchanged.
func Wrap(gen agent.Generator, stage string, chain *MiddlewareChain) agent.Generator {
	if gen == nil || chain.Len() == 0 {
		return gen
	}
	return agent.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		mc := NewContext(ctx, stage, prompt)
		err := chain.Execute(mc, func(c *Context) error {
			out, err := gen.Generate(c.Context(), c.Prompt)
			c.Output = out
			c.Error = err
			return err
		})
		if err != nil {
			return "", err
		}
		return mc.Output, nil
	})
}
