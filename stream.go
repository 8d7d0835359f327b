package devindex

import (
	"context"
	"sync"
)

// EventStream is the ordered hand-off between a running stage (the producer)
// and the pipeline driver (the sole consumer). A stream belongs to exactly one
// stage invocation and is not restartable; the driver must drain it to
// exhaustion before proceeding, which the pipeline guarantees structurally by
// reading until the stream closes.
type EventStream struct {
	ch   chan Event
	once sync.Once
	err  error
}

func newEventStream(buffer int) *EventStream {
	if buffer < 0 {
		buffer = 0
	}
	return &EventStream{ch: make(chan Event, buffer)}
}

// send delivers an event to the consumer, blocking until the consumer is
// ready or the run context is cancelled. Cancellation is the only error.
func (s *EventStream) send(ctx context.Context, event Event) error {
	select {
	case s.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close marks the end of the stream with the producing stage's final error.
// Subsequent calls are no-ops.
func (s *EventStream) close(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.ch)
	})
}

// Next returns the next event in order. The second return value is false once
// the stream is exhausted, after which Err reports the stage outcome.
func (s *EventStream) Next() (Event, bool) {
	event, ok := <-s.ch
	return event, ok
}

// Err returns the error the producer closed the stream with. It is only
// meaningful after Next has reported exhaustion.
func (s *EventStream) Err() error {
	return s.err
}
