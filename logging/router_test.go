package logging

import (
	"context"
	"testing"
	"time"
)

func TestRouterFiltersBySeverity(t *testing.T) {
	sink := NewMemorySink()
	router := NewRouter(nil, SeverityInfo, sink)

	router.Publish(context.Background(), Event{Type: EventTypeTick, Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: EventTypeStateChanged, Severity: SeverityInfo})

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(events))
	}
	if events[0].Type != EventTypeStateChanged {
		t.Fatalf("unexpected event type %s", events[0].Type)
	}
	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRouterStampsTime(t *testing.T) {
	sink := NewMemorySink()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	router := NewRouter(ClockFunc(func() time.Time { return fixed }), SeverityDebug, sink)

	router.Publish(context.Background(), Event{Type: EventTypeTick})
	events := sink.Events()
	if len(events) != 1 || !events[0].Time.Equal(fixed) {
		t.Fatalf("expected clock-stamped event, got %+v", events)
	}
}

func TestMetricsAddAndStore(t *testing.T) {
	m := NewMetrics()
	m.TelemetryAdd("pathfinds", 3)
	m.TelemetryAdd("pathfinds", 2)
	m.TelemetryStore("queue_depth", 7)
	snap := m.Snapshot()
	if snap["pathfinds"] != 5 {
		t.Fatalf("expected counter 5, got %d", snap["pathfinds"])
	}
	if snap["queue_depth"] != 7 {
		t.Fatalf("expected gauge 7, got %d", snap["queue_depth"])
	}
}
