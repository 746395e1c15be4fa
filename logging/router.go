package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Sink receives routed events.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// Router fans published events out to its sinks, dropping events below the
// minimum severity. Sink write failures are logged to the fallback logger and
// counted, never propagated to publishers.
type Router struct {
	mu          sync.Mutex
	sinks       []Sink
	clock       Clock
	fallback    *log.Logger
	minSeverity Severity

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
}

// RouterStats reports delivery counters.
type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

// NewRouter wires sinks behind one Publisher.
func NewRouter(clock Clock, minSeverity Severity, sinks ...Sink) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Router{
		sinks:       kept,
		clock:       clock,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		minSeverity: minSeverity,
	}
}

// Publish implements Publisher.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil {
		return
	}
	if event.Severity < r.minSeverity {
		r.droppedTotal.Add(1)
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	r.eventsTotal.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sink := range r.sinks {
		if err := sink.Write(event); err != nil {
			r.droppedTotal.Add(1)
			r.fallback.Printf("sink write failed: %v", err)
		}
	}
}

// Stats returns delivery counters.
func (r *Router) Stats() RouterStats {
	if r == nil {
		return RouterStats{}
	}
	return RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}

// Close closes every sink.
func (r *Router) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, sink := range r.sinks {
		if err := sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
