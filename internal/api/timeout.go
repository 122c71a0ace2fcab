package api

import (
	"context"
	"time"
)

type result struct {
	text string
	err  error
}

// timeoutCompleter bounds each call. A backend that ignores cancellation is
// abandoned: its eventual result is discarded.
type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout wraps c so that a call running longer than d fails with a
// GenerationError wrapping context.DeadlineExceeded. A zero d returns c unchanged.
func WithTimeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return &timeoutCompleter{next: c, timeout: d}
}

func (t *timeoutCompleter) Complete(ctx context.Context, model, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		text, err := t.next.Complete(ctx, model, system, user)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", asGenerationError(model, r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", &GenerationError{Backend: "timeout", Model: model, Err: ctx.Err()}
	}
}

// asGenerationError leaves typed failures alone and wraps anything else.
func asGenerationError(model string, err error) error {
	if _, ok := err.(*GenerationError); ok {
		return err
	}
	return &GenerationError{Backend: "unknown", Model: model, Err: err}
}
