// Package telemetry exposes the logging and metrics capabilities engine
// components depend on, plus optional tick-history recorders for offline
// analysis.
package telemetry

import (
	"log"

	"fieldmind/logging"
)

// Logger is the printf surface required by engine components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Metrics exposes the counter surface required by engine components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts the logging metrics registry to the Metrics interface.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return &metricsAdapter{metrics: metrics}
}

type metricsAdapter struct {
	metrics *logging.Metrics
}

func (m *metricsAdapter) Add(key string, delta uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryAdd(key, delta)
}

func (m *metricsAdapter) Store(key string, value uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryStore(key, value)
}

// TickSample is one tick's engine statistics, flattened for recording.
type TickSample struct {
	Tick            uint64  `json:"tick"`
	AgentUpdates    int     `json:"agentUpdates"`
	Pathfinds       int     `json:"pathfinds"`
	PathCacheSize   int     `json:"pathCacheSize"`
	FieldCacheSize  int     `json:"fieldCacheSize"`
	QueueDepth      int     `json:"queueDepth"`
	Agents          int     `json:"agents"`
	DurationMillis  float64 `json:"durationMillis"`
	TotalTimeSecond float64 `json:"totalTimeSeconds"`
}
