package logging

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
)

// ConsoleSink renders events as single log lines.
type ConsoleSink struct {
	logger *log.Logger
}

// NewConsoleSink writes formatted events to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{logger: log.New(w, "", log.LstdFlags)}
}

// Write implements Sink.
func (s *ConsoleSink) Write(event Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	if event.AgentID != "" {
		s.logger.Printf("[%s] tick=%d agent=%s severity=%s", event.Type, event.Tick, event.AgentID, event.Severity)
		return nil
	}
	s.logger.Printf("[%s] tick=%d severity=%s", event.Type, event.Tick, event.Severity)
	return nil
}

// Close implements Sink.
func (s *ConsoleSink) Close(context.Context) error { return nil }

// JSONSink writes one JSON object per event line.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewJSONSink writes JSONL events to w; if w is also an io.Closer it is
// closed with the sink.
func NewJSONSink(w io.Writer) *JSONSink {
	sink := &JSONSink{enc: json.NewEncoder(w)}
	if closer, ok := w.(io.Closer); ok {
		sink.c = closer
	}
	return sink
}

// Write implements Sink.
func (s *JSONSink) Write(event Event) error {
	if s == nil || s.enc == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(event)
}

// Close implements Sink.
func (s *JSONSink) Close(context.Context) error {
	if s == nil || s.c == nil {
		return nil
	}
	return s.c.Close()
}

// MemorySink retains events for test assertions.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Write implements Sink.
func (s *MemorySink) Write(event Event) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Close implements Sink.
func (s *MemorySink) Close(context.Context) error { return nil }

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
