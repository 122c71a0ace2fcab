package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the printer goroutine.
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

// blockingWriter stalls every write until release is closed.
type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestPrinter_PrintsInOrder(t *testing.T) {
	out := &syncBuffer{}
	p := NewPrinter(out, PrinterConfig{NoColor: true})
	defer p.Close()

	p.Emit(Heading("Step 1: Retrieving Initial Plan"))
	p.Emit("line a\nline b")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "--- **Step 1: Retrieving Initial Plan** ---\nline a\nline b\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrinter_EmitNeverBlocks(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	p := NewPrinter(w, PrinterConfig{QueueSize: 2, NoColor: true})
	defer func() {
		close(w.release)
		p.Close()
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Emit("spam")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a stalled writer")
	}

	if p.DroppedCount() == 0 {
		t.Error("expected dropped lines with a full queue")
	}
}

func TestPrinter_FlushHonorsContext(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	p := NewPrinter(w, PrinterConfig{NoColor: true})
	defer func() {
		close(w.release)
		p.Close()
	}()

	p.Emit("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Flush(ctx); err == nil {
		t.Error("Flush should fail when the writer is stalled")
	}
}

func TestPrinter_FlushDoesNotHoldUpClose(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	p := NewPrinter(w, PrinterConfig{QueueSize: 1, NoColor: true})

	p.Emit("stuck")
	p.Emit("queued")

	flushed := make(chan error, 1)
	go func() { flushed <- p.Flush(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	returned := make(chan struct{})
	go func() {
		p.Close()
		p.Emit("after close")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Close and Emit blocked behind a pending Flush")
	}

	close(w.release)
	select {
	case err := <-flushed:
		if err != nil {
			t.Errorf("Flush: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return after the writer was released")
	}
}

func TestPrinter_Pace(t *testing.T) {
	out := &syncBuffer{}
	p := NewPrinter(out, PrinterConfig{Pace: 20 * time.Millisecond, NoColor: true})
	defer p.Close()

	start := time.Now()
	p.Emit("a\nb\nc")
	if time.Since(start) > 15*time.Millisecond {
		t.Error("Emit waited on pacing")
	}

	if err := p.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("three lines printed in %v, want at least 60ms", elapsed)
	}
	if strings.Count(out.String(), "\n") != 3 {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrinter_CloseDrains(t *testing.T) {
	out := &syncBuffer{}
	p := NewPrinter(out, PrinterConfig{NoColor: true})

	p.Emit("last words")
	p.Close()
	p.Emit("after close")
	p.Close()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("printer did not drain after Close")
	}

	if got := out.String(); got != "last words\n" {
		t.Errorf("output = %q", got)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Errorf("Flush after Close: %v", err)
	}
}
