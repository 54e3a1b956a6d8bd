package errorhandler

import (
	"context"
	"errors"
	"fmt"

	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/middleware"
)

// ErrorHandlerFunc maps an error returned downstream.
type ErrorHandlerFunc func(stage string, err error) error

// ErrorHandler rewrites errors returned by the rest of the chain.
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// NewGenerationErrorHandler tags every provider error with ErrGeneration so
// callers can classify it with errors.Is. Context cancellation is passed
// through untouched.
func NewGenerationErrorHandler() *ErrorHandler {
	return NewErrorHandler(func(stage string, err error) error {
		if errors.Is(err, context.Canceled) || errors.Is(err, docerrors.ErrGeneration) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", docerrors.ErrGeneration, stage, err)
	})
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil && m.handler != nil {
		err = m.handler(ctx.Stage, err)
		ctx.Error = err
	}
	return err
}
