package api

import (
	"errors"
	"fmt"
)

// ErrGeneration is the Is target for every backend failure.
var ErrGeneration = errors.New("generation failed")

// ErrEmptyCompletion marks a response that carried no text.
var ErrEmptyCompletion = errors.New("empty completion")

// GenerationError reports that a backend could not produce a response.
type GenerationError struct {
	Backend string
	Model   string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: model %s: %v", e.Backend, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is reports true for ErrGeneration so callers can match any backend failure.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
