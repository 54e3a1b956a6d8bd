package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates that input validation failed.
	// Questions rejected with this error never enter the pipeline.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGeneration indicates that the generation service failed or timed out
	ErrGeneration = errors.New("generation failed")

	// ErrRetrieval indicates that the retrieval service failed or timed out
	ErrRetrieval = errors.New("retrieval failed")

	// ErrAlreadyCommitted indicates that a turn was committed to session memory twice
	ErrAlreadyCommitted = errors.New("turn already committed")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
