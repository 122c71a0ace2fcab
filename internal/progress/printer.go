package progress

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// DefaultPace is the delay between printed lines.
const DefaultPace = 90 * time.Millisecond

// DefaultQueueSize bounds how many messages may wait to be printed.
const DefaultQueueSize = 256

// Printer writes lines to a terminal at a steady pace from a single
// background goroutine. Emit never blocks; when the queue is full the
// message is dropped and counted.
type Printer struct {
	out     io.Writer
	pace    time.Duration
	heading *color.Color

	mu     sync.RWMutex
	closed bool
	queue  chan string

	// flushes is never closed; the loop answers each request after the
	// lines queued ahead of it are printed.
	flushes chan chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
}

// PrinterConfig configures a Printer.
type PrinterConfig struct {
	// Pace is the pause after each line. Zero prints without delay.
	Pace time.Duration
	// QueueSize bounds pending messages. Defaults to DefaultQueueSize.
	QueueSize int
	// NoColor disables heading colors.
	NoColor bool
}

// NewPrinter starts a printer writing to out.
func NewPrinter(out io.Writer, cfg PrinterConfig) *Printer {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	heading := color.New(color.FgCyan, color.Bold)
	if cfg.NoColor {
		heading.DisableColor()
	}

	p := &Printer{
		out:     out,
		pace:    cfg.Pace,
		heading: heading,
		queue:   make(chan string, size),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
	}
	go p.loop()
	return p
}

// Emit queues text for printing.
func (p *Printer) Emit(text string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- text:
	default:
		count := p.dropped.Add(1)
		if count%10 == 1 {
			log.Printf("[progress] WARNING: printer queue full, dropped line (total dropped: %d)", count)
		}
	}
}

// Flush waits until everything queued before the call has been printed,
// or until ctx is done. It holds no lock while waiting.
func (p *Printer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case p.flushes <- ack:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting lines. Already queued lines are still printed;
// Close does not wait for them.
func (p *Printer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// Done is closed once the queue has drained after Close.
func (p *Printer) Done() <-chan struct{} {
	return p.done
}

// DroppedCount returns how many messages were discarded.
func (p *Printer) DroppedCount() uint64 {
	return p.dropped.Load()
}

func (p *Printer) loop() {
	defer close(p.done)
	for {
		select {
		case text, ok := <-p.queue:
			if !ok {
				return
			}
			p.print(text)
		case ack := <-p.flushes:
			for n := len(p.queue); n > 0; n-- {
				text, ok := <-p.queue
				if !ok {
					break
				}
				p.print(text)
			}
			close(ack)
		}
	}
}

func (p *Printer) print(text string) {
	for _, line := range strings.Split(text, "\n") {
		p.writeLine(line)
		if p.pace > 0 {
			time.Sleep(p.pace)
		}
	}
}

func (p *Printer) writeLine(line string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "--- **") && strings.HasSuffix(trimmed, "** ---") {
		p.heading.Fprintln(p.out, line)
		return
	}
	io.WriteString(p.out, line+"\n")
}
