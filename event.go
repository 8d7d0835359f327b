package devindex

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind categorizes the purpose of an event on the run's stream.
type EventKind string

const (
	// EventProgress reports incremental progress from a running stage.
	EventProgress EventKind = "progress"
	// EventMessage carries free-form conversational or informational text.
	EventMessage EventKind = "message"
	// EventOutput carries a stage's user-visible output payload.
	EventOutput EventKind = "output"
	// EventFailure is the terminal event emitted when a run halts.
	EventFailure EventKind = "failure"
	// EventSummary is the optional final event of a completed run.
	EventSummary EventKind = "summary"
)

// Event is one ordered unit of observable progress or output within a run.
// After emission an Event must be treated as immutable. The pipeline stamps
// RunID, Stage and Branch before relaying it to the sink, so constructors only
// need to supply the kind and payload.
type Event struct {
	ID        string         `json:"id"`
	RunID     string         `json:"runId,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Branch    string         `json:"branch,omitempty"`
	Kind      EventKind      `json:"kind"`
	Text      string         `json:"text,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates a bare event of the given kind with a fresh ID and UTC
// timestamp.
func NewEvent(kind EventKind, text string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressEvent creates a progress event with the given text.
func NewProgressEvent(text string) Event {
	return NewEvent(EventProgress, text)
}

// NewMessageEvent creates a free-form message event.
func NewMessageEvent(text string) Event {
	return NewEvent(EventMessage, text)
}

// NewOutputEvent creates an output event carrying text plus optional
// structured payload data.
func NewOutputEvent(text string, data map[string]any) Event {
	e := NewEvent(EventOutput, text)
	e.Data = data
	return e
}

// NewFailureEvent creates a terminal failure event.
func NewFailureEvent(text string) Event {
	return NewEvent(EventFailure, text)
}

// EventSink receives events relayed by the pipeline in emission order.
// The pipeline calls Emit from a single goroutine, so implementations only
// need to be safe for use by one producer at a time.
type EventSink interface {
	Emit(event Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Emit implements EventSink.
func (f SinkFunc) Emit(event Event) { f(event) }

// Collector is an EventSink that records every event it receives. It is safe
// for concurrent use and is convenient for tests and buffered consumers.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty event collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit implements EventSink.
func (c *Collector) Emit(event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events in relay order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Last returns the most recently recorded event, or false when empty.
func (c *Collector) Last() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[len(c.events)-1], true
}
