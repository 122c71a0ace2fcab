package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/pkg/models"
)

// RunStatus represents the status of a pass.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one pipeline pass.
type Run struct {
	ID         string     `json:"id"`
	Task       string     `json:"task"`
	Pass       int        `json:"pass"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ArtifactRecord is one persisted agent response.
type ArtifactRecord struct {
	RunID     string              `json:"run_id"`
	Stage     models.Stage        `json:"stage"`
	Kind      models.ArtifactKind `json:"kind"`
	Step      int                 `json:"step"`
	Name      string              `json:"name"`
	Location  string              `json:"location"`
	CreatedAt time.Time           `json:"created_at"`
}

// Run CRUD operations

// CreateRun records a new pass.
func (db *DB) CreateRun(r *Run) error {
	if r.Status == "" {
		r.Status = RunRunning
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, task, pass, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Task, r.Pass, string(r.Status), r.Error, formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun marks a pass completed, or failed when runErr is non-nil.
func (db *DB) FinishRun(id string, runErr error, at time.Time) error {
	status, msg := RunCompleted, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}

	result, err := db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, string(status), msg, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil, nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, task, pass, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT id, task, pass, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, pass DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var status, startedAt string
	var errText, finishedAt sql.NullString
	if err := s.Scan(&r.ID, &r.Task, &r.Pass, &status, &errText, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	r.Error = errText.String
	r.StartedAt, _ = parseTime(startedAt)
	r.FinishedAt = parseNullableTime(finishedAt)
	return &r, nil
}

// Artifact operations

// AddArtifact records a persisted artifact for a run.
func (db *DB) AddArtifact(a *ArtifactRecord) error {
	_, err := db.Exec(`
		INSERT INTO artifacts (run_id, stage, kind, step, name, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.RunID, string(a.Stage), string(a.Kind), a.Step, a.Name, a.Location, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("add artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns a run's artifacts in the order they were recorded.
func (db *DB) ListArtifacts(runID string) ([]ArtifactRecord, error) {
	rows, err := db.Query(`
		SELECT run_id, stage, kind, step, name, location, created_at
		FROM artifacts WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		var stage, kind, createdAt string
		if err := rows.Scan(&a.RunID, &stage, &kind, &a.Step, &a.Name, &a.Location, &createdAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.Stage = models.Stage(stage)
		a.Kind = models.ArtifactKind(kind)
		a.CreatedAt, _ = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Recorder hooks: DB receives pipeline lifecycle events directly.

// RunStarted records the start of a pass.
func (db *DB) RunStarted(runID string, pass int, task string, at time.Time) error {
	return db.CreateRun(&Run{ID: runID, Task: task, Pass: pass, Status: RunRunning, StartedAt: at})
}

// RunFinished records the outcome of a pass.
func (db *DB) RunFinished(runID string, runErr error, at time.Time) error {
	return db.FinishRun(runID, runErr, at)
}

// ArtifactSaved records a persisted artifact.
func (db *DB) ArtifactSaved(runID string, e artifact.Entry) error {
	return db.AddArtifact(&ArtifactRecord{
		RunID:     runID,
		Stage:     e.Stage,
		Kind:      e.Kind,
		Step:      e.Step,
		Name:      e.Name,
		Location:  e.Location,
		CreatedAt: e.CreatedAt,
	})
}
