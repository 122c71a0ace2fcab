package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/o1/internal/agent"
	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/config"
	"github.com/ShayCichocki/o1/internal/orchestrator"
	"github.com/ShayCichocki/o1/internal/state"
	"github.com/ShayCichocki/o1/pkg/models"
)

// fakeLLM answers by role and can fail one worker step.
type fakeLLM struct {
	mu        sync.Mutex
	calls     int
	summaries int
	failStep  int
}

func (f *fakeLLM) Complete(ctx context.Context, model, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	switch {
	case system == agent.PlanSystemPrompt:
		return "1. gather\n2. build\n3. test\n4. ship", nil
	case system == agent.SummarySystemPrompt:
		f.summaries++
		return fmt.Sprintf("strategy %d", f.summaries), nil
	}
	for step := 1; step <= 16; step++ {
		if system == agent.WorkerSystemPrompt(step) {
			if step == f.failStep {
				return "", &api.GenerationError{Backend: "fake", Model: model, Err: errors.New("model offline")}
			}
			return fmt.Sprintf("implementation of step %d", step), nil
		}
	}
	return "", fmt.Errorf("unexpected system prompt %q", system)
}

// syncBuffer is a bytes.Buffer safe for the printer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Pace = 0
	return cfg
}

var fixedNow = func() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)
}

func TestRunTask(t *testing.T) {
	cfg := testConfig(t)
	llm := &fakeLLM{}
	var out, errOut syncBuffer

	result, err := runTask(context.Background(), cfg, llm, api.DefaultModels(cfg.Provider), "design a cache", runIO{
		out:     &out,
		errOut:  &errOut,
		noColor: true,
		now:     fixedNow,
	})
	if err != nil {
		t.Fatalf("runTask() error: %v", err)
	}

	if len(result.Passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(result.Passes))
	}
	if result.Final() != "strategy 2" {
		t.Errorf("Final() = %q, want %q", result.Final(), "strategy 2")
	}
	if result.Passes[1].Task != "strategy 1" {
		t.Errorf("second pass task = %q, want the first pass's final", result.Passes[1].Task)
	}
	// Two CEO calls plus four workers per pass.
	if llm.calls != 12 {
		t.Errorf("model calls = %d, want 12", llm.calls)
	}

	printed := out.String()
	for _, want := range []string{
		"--- **Task Processing Initiated** ---",
		"--- **Refinement Pass Started** ---",
		"--- **FINAL OUTPUT** ---\nstrategy 2",
		"--- **Process Completed** ---",
	} {
		if !strings.Contains(printed, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Index(printed, "Final Result Generated") > strings.Index(printed, "FINAL OUTPUT") {
		t.Error("progress should be flushed before the final output")
	}

	runDir := artifact.RunDir(cfg.Output.Dir, fixedNow())
	for _, name := range []string{"Agent_1_Response.md", "Agent_4_Response_pass2.md", artifact.ManifestFile, orchestrator.DebugLogFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Errorf("expected %s in run dir: %v", name, err)
		}
	}

	m, err := artifact.LoadManifest(runDir)
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	if m.Len() != 12 {
		t.Errorf("manifest entries = %d, want 12", m.Len())
	}

	db, err := state.OpenLedger(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("OpenLedger() error: %v", err)
	}
	defer db.Close()
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ledger runs = %d, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Status != state.RunCompleted {
			t.Errorf("run %s status = %s, want completed", r.ID, r.Status)
		}
	}
}

func TestRunTask_Quiet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Refine = false
	cfg.Pipeline.Workers = 2
	var out, errOut syncBuffer

	result, err := runTask(context.Background(), cfg, &fakeLLM{}, api.DefaultModels(cfg.Provider), "write a poem", runIO{
		out:     &out,
		errOut:  &errOut,
		quiet:   true,
		noColor: true,
		now:     fixedNow,
	})
	if err != nil {
		t.Fatalf("runTask() error: %v", err)
	}
	if len(result.Passes) != 1 {
		t.Errorf("passes = %d, want 1", len(result.Passes))
	}

	printed := out.String()
	if strings.Contains(printed, "Task Processing Initiated") {
		t.Error("quiet run should not print progress")
	}
	if !strings.Contains(printed, "strategy 1") {
		t.Errorf("quiet run should still print the final output, got %q", printed)
	}
}

func TestRunTask_WorkerFailure(t *testing.T) {
	cfg := testConfig(t)
	llm := &fakeLLM{failStep: 2}
	var out, errOut syncBuffer

	result, err := runTask(context.Background(), cfg, llm, api.DefaultModels(cfg.Provider), "design a cache", runIO{
		out:     &out,
		errOut:  &errOut,
		noColor: true,
		now:     fixedNow,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var failed *runFailedError
	if !errors.As(err, &failed) {
		t.Errorf("error should be reported as runFailedError, got %T", err)
	}
	var stageErr *orchestrator.StageError
	if !errors.As(err, &stageErr) || stageErr.Step != 2 || stageErr.Stage != models.StageImplement {
		t.Errorf("expected implement step 2 StageError, got %v", err)
	}
	if !errors.Is(err, api.ErrGeneration) {
		t.Errorf("expected a generation error, got %v", err)
	}
	if len(result.Passes) != 0 {
		t.Errorf("passes = %d, want 0", len(result.Passes))
	}
	if llm.summaries != 0 {
		t.Errorf("summaries = %d, want 0 after a worker failure", llm.summaries)
	}

	msg := errOut.String()
	for _, want := range []string{"--- **Run Failed** ---", "pass 1, stage implement, step 2", "model offline"} {
		if !strings.Contains(msg, want) {
			t.Errorf("failure banner missing %q in %q", want, msg)
		}
	}
	if strings.Contains(out.String(), "FINAL OUTPUT") {
		t.Error("failed run should not print a final output")
	}
}

func TestPrintFailure_Canceled(t *testing.T) {
	var buf bytes.Buffer
	err := &orchestrator.StageError{Pass: 2, Stage: models.StagePlan, Err: context.Canceled}

	printFailure(&buf, err, true)

	got := buf.String()
	if !strings.Contains(got, "pass 2, stage plan\n") {
		t.Errorf("missing stage line in %q", got)
	}
	if !strings.Contains(got, "Run canceled") {
		t.Errorf("missing cancel line in %q", got)
	}
}
