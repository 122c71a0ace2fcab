package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/o1/pkg/models"
)

var (
	// ErrEmptyTask rejects a task with no text.
	ErrEmptyTask = errors.New("task is empty")
	// ErrInvalidWorkers rejects a worker count below one.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")
)

// StageError records which pass, stage and step failed.
type StageError struct {
	Pass  int
	Stage models.Stage
	// Step is the failing worker's step identity, zero outside IMPLEMENT.
	Step int
	Err  error
}

func (e *StageError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("pass %d: %s step %d: %v", e.Pass, e.Stage, e.Step, e.Err)
	}
	return fmt.Sprintf("pass %d: %s: %v", e.Pass, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
