package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/docqa/middleware"
	"github.com/sweetpotato0/docqa/pkg/logging"
)

// CallLogger logs every generation call with its stage, sizes and latency.
type CallLogger struct {
	logger *slog.Logger
}

// NewCallLogger creates a logging middleware. A nil logger uses the
// package default with component=generation.
func NewCallLogger(logger *slog.Logger) *CallLogger {
	if logger == nil {
		logger = logging.WithComponent("generation")
	}
	return &CallLogger{logger: logger}
}

// Name returns the middleware name
func (m *CallLogger) Name() string {
	return "CallLogger"
}

// Execute logs the call after it returns.
func (m *CallLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)

	attrs := []any{
		"stage", ctx.Stage,
		"prompt_chars", len(ctx.Prompt),
		"output_chars", len(ctx.Output),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	for k, v := range ctx.Metadata {
		attrs = append(attrs, k, v)
	}
	if err != nil {
		m.logger.Warn("generation call failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.Debug("generation call completed", attrs...)
	return nil
}
