package state

import (
	"io"
	"time"

	"github.com/ShayCichocki/o1/internal/artifact"
)

// RunStore handles run-related persistence operations.
type RunStore interface {
	CreateRun(r *Run) error
	FinishRun(id string, runErr error, at time.Time) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
}

// ArtifactStore handles artifact-record persistence operations.
type ArtifactStore interface {
	AddArtifact(a *ArtifactRecord) error
	ListArtifacts(runID string) ([]ArtifactRecord, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// LedgerHooks is the shape the pipeline reports into.
type LedgerHooks interface {
	RunStarted(runID string, pass int, task string, at time.Time) error
	RunFinished(runID string, runErr error, at time.Time) error
	ArtifactSaved(runID string, e artifact.Entry) error
}

// StateStore composes every ledger operation.
type StateStore interface {
	io.Closer
	Migrator
	RunStore
	ArtifactStore
	LedgerHooks
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore    = (*DB)(nil)
	_ Migrator      = (*DB)(nil)
	_ RunStore      = (*DB)(nil)
	_ ArtifactStore = (*DB)(nil)
	_ LedgerHooks   = (*DB)(nil)
)
