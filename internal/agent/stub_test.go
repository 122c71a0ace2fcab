package agent

import (
	"context"
	"sync"
)

type call struct {
	Model  string
	System string
	User   string
}

// stubLLM records every call and answers with reply.
type stubLLM struct {
	mu    sync.Mutex
	calls []call
	reply func(c call) (string, error)
}

func (s *stubLLM) Complete(ctx context.Context, model, system, user string) (string, error) {
	c := call{Model: model, System: system, User: user}
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
	if s.reply == nil {
		return "ok", nil
	}
	return s.reply(c)
}

func (s *stubLLM) Calls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

// memSink keeps artifacts in a map.
type memSink struct {
	mu    sync.Mutex
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
	m.saved[name] = content
	return "mem://" + name, nil
}
