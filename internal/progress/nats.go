package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix starts every progress subject.
const SubjectPrefix = "o1.progress"

// UnassignedRunID tags lines emitted before a run ID is known.
const UnassignedRunID = "unassigned"

// Subject returns the subject progress for runID is published on.
func Subject(runID string) string {
	if runID == "" {
		runID = UnassignedRunID
	}
	return fmt.Sprintf("%s.%s", SubjectPrefix, runID)
}

// SubjectAll matches every run's progress.
const SubjectAll = SubjectPrefix + ".>"

// Event is the JSON payload of a published progress line.
type Event struct {
	RunID     string    `json:"run_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSSink publishes each line on Subject(runID).
type NATSSink struct {
	conn   *nats.Conn
	runID  atomic.Pointer[string]
	failed atomic.Uint64
}

// NewNATSSink connects to the server at url.
func NewNATSSink(url, runID string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("o1"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	s := &NATSSink{conn: conn}
	s.SetRunID(runID)
	return s, nil
}

// SetRunID switches the subject later lines are published on.
func (s *NATSSink) SetRunID(runID string) {
	s.runID.Store(&runID)
}

// Emit publishes text. Publish only buffers, so this never waits on
// subscribers; failures are counted and otherwise ignored.
func (s *NATSSink) Emit(text string) {
	runID := *s.runID.Load()
	data, err := json.Marshal(Event{RunID: runID, Text: text, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := s.conn.Publish(Subject(runID), data); err != nil {
		if count := s.failed.Add(1); count == 1 {
			log.Printf("[progress] nats publish failed: %v", err)
		}
	}
}

// Close flushes buffered lines and closes the connection.
func (s *NATSSink) Close() {
	if err := s.conn.Flush(); err != nil {
		log.Printf("[progress] nats flush: %v", err)
	}
	s.conn.Close()
}

// Watch subscribes to progress for every run and calls fn for each event
// until the returned subscription is unsubscribed.
func Watch(conn *nats.Conn, fn func(Event)) (*nats.Subscription, error) {
	return conn.Subscribe(SubjectAll, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("[progress] bad event on %s: %v", msg.Subject, err)
			return
		}
		fn(ev)
	})
}
