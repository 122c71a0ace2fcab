package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/o1/internal/agent"
	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
)

var testModels = api.Models{Fast: "fast-model", Capable: "capable-model"}

type llmCall struct {
	Model  string
	System string
	User   string
}

// scriptedLLM answers plan, worker and summary calls with recognizable
// text. fail may return an error for a given call.
type scriptedLLM struct {
	mu    sync.Mutex
	calls []llmCall

	fail  func(kind string, step int) error
	delay func(step int) time.Duration
}

func (s *scriptedLLM) Complete(ctx context.Context, model, system, user string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, llmCall{Model: model, System: system, User: user})
	s.mu.Unlock()

	kind, step := classify(system)
	if s.delay != nil && step > 0 {
		select {
		case <-time.After(s.delay(step)):
		case <-ctx.Done():
			return "", &api.GenerationError{Backend: "stub", Model: model, Err: ctx.Err()}
		}
	}
	if s.fail != nil {
		if err := s.fail(kind, step); err != nil {
			return "", err
		}
	}

	switch kind {
	case "plan":
		return "PLAN[" + user + "]", nil
	case "worker":
		return fmt.Sprintf("IMPL%d", step), nil
	default:
		return fmt.Sprintf("FINAL[%d]", len(user)), nil
	}
}

func (s *scriptedLLM) Calls() []llmCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llmCall(nil), s.calls...)
}

func classify(system string) (string, int) {
	switch {
	case system == agent.PlanSystemPrompt:
		return "plan", 0
	case system == agent.SummarySystemPrompt:
		return "summary", 0
	case strings.HasPrefix(system, "You are Agent "):
		var step int
		fmt.Sscanf(system, "You are Agent %d", &step)
		return "worker", step
	default:
		return "unknown", 0
	}
}

// memSink keeps artifacts in memory.
type memSink struct {
	mu    sync.Mutex
	order []string
	saved map[string]string
	err   error
}

func (m *memSink) Save(name, content string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.order = append(m.order, name)
	m.saved[name] = content
	return "mem://" + name, nil
}

func (m *memSink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// fakeRecorder counts ledger calls.
type fakeRecorder struct {
	mu        sync.Mutex
	started   []string
	finished  map[string]error
	artifacts map[string][]artifact.Entry
	err       error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{finished: map[string]error{}, artifacts: map[string][]artifact.Entry{}}
}

func (f *fakeRecorder) RunStarted(runID string, pass int, task string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, runID)
	return f.err
}

func (f *fakeRecorder) RunFinished(runID string, runErr error, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished[runID] = runErr
	return f.err
}

func (f *fakeRecorder) ArtifactSaved(runID string, e artifact.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[runID] = append(f.artifacts[runID], e)
	return f.err
}
