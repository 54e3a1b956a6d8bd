package timeout

import (
	"context"
	"time"

	"github.com/sweetpotato0/docqa/middleware"
)

// Timeout bounds each generation call with a deadline.
type Timeout struct {
	d time.Duration
}

// New creates a timeout middleware. Non-positive durations disable it.
func New(d time.Duration) *Timeout {
	return &Timeout{d: d}
}

// Name returns the middleware name
func (m *Timeout) Name() string {
	return "Timeout"
}

// Execute runs next under a derived context with deadline d.
func (m *Timeout) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.d <= 0 {
		return next(ctx)
	}
	parent := ctx.Context()
	cctx, cancel := context.WithTimeout(parent, m.d)
	defer cancel()
	ctx.SetContext(cctx)
	defer ctx.SetContext(parent)
	return next(ctx)
}
