// Package telemetry is the fire-and-forget observation boundary: named
// spans around actor runs and events around tool invocations. Emission must
// never block or fail the work being observed.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"buildloop/internal/logger"
)

type Sink interface {
	// StartSpan records the start of a named span and returns the closer.
	StartSpan(name string) func()
	// Event records a named event with its fields.
	Event(name string, fields map[string]any)
}

// NewLogSink returns a sink backed by the shared file logger.
func NewLogSink() Sink { return &logSink{} }

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

type logSink struct{}

func (s *logSink) StartSpan(name string) func() {
	if logger.Log == nil {
		return func() {}
	}
	start := time.Now()
	logger.Log.Printf("[span] %s started", name)
	return func() {
		logger.Log.Printf("[span] %s finished in %s", name, time.Since(start).Round(time.Millisecond))
	}
}

func (s *logSink) Event(name string, fields map[string]any) {
	if logger.Log == nil {
		return
	}
	logger.Log.Printf("[event] %s %s", name, formatFields(fields))
}

// Sorted keys keep the log diffable between runs.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%v", k, fields[k]))
	}
	sb.WriteString("}")
	return sb.String()
}

type nopSink struct{}

func (nopSink) StartSpan(string) func()      { return func() {} }
func (nopSink) Event(string, map[string]any) {}
