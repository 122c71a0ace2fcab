package orchestrator

import (
	"time"

	"github.com/ShayCichocki/o1/internal/artifact"
)

// Recorder receives the lifecycle of every pass and every persisted
// artifact. Implementations must be safe for concurrent use; their
// errors are logged and never fail a run.
type Recorder interface {
	RunStarted(runID string, pass int, task string, at time.Time) error
	RunFinished(runID string, runErr error, at time.Time) error
	ArtifactSaved(runID string, e artifact.Entry) error
}
