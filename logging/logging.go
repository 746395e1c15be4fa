// Package logging provides the event publisher the engine reports through:
// typed events, pluggable sinks, and a small metrics registry for counters
// exposed alongside engine stats.
package logging

import (
	"context"
	"time"
)

// EventType names one notification kind.
type EventType string

const (
	EventTypeStateChanged     EventType = "ai.state_changed"
	EventTypePathfindingStats EventType = "ai.pathfinding_stats"
	EventTypeTick             EventType = "ai.tick"
)

// Severity orders events for sink filtering.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one published notification.
type Event struct {
	Type     EventType `json:"type"`
	Tick     uint64    `json:"tick"`
	Time     time.Time `json:"time"`
	AgentID  string    `json:"agentId,omitempty"`
	Severity Severity  `json:"severity"`
	Payload  any       `json:"payload,omitempty"`
}

// Publisher accepts events for delivery. Delivery is fire-and-forget; the
// engine never blocks on a slow consumer.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, event Event)

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

// NopPublisher discards every event.
func NopPublisher() Publisher {
	return PublisherFunc(func(context.Context, Event) {})
}
