//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"sort"
	"time"
)

// LogLevel is the severity of a trace log entry. Trace levels are ordered;
// entries below a run's level are dropped at record time.
type LogLevel uint8

const (
	// LevelDebug is the most verbose trace level.
	LevelDebug LogLevel = iota
	// LevelInfo records normal progress.
	LevelInfo
	// LevelWarn records recoverable anomalies.
	LevelWarn
	// LevelError records node failures.
	LevelError
	// LevelFatal records run-aborting failures.
	LevelFatal
)

// String returns the level name.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "unknown"
}

// LogEntry is one trace log record.
type LogEntry struct {
	// Message is the log message.
	Message string `json:"message"`
	// Level is the severity.
	Level LogLevel `json:"level"`
	// NodeID is the node the entry belongs to.
	NodeID string `json:"node_id,omitempty"`
	// Start and End bound the operation the entry describes, in Unix
	// microseconds. Point-in-time entries have Start == End.
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// NewLogEntry creates a log entry stamped with the current time.
func NewLogEntry(message string, level LogLevel) LogEntry {
	now := time.Now().UnixMicro()
	return LogEntry{Message: message, Level: level, Start: now, End: now}
}

// Finish stamps the end time of a duration entry.
func (e *LogEntry) Finish() {
	e.End = time.Now().UnixMicro()
}

// Trace is the per-invocation record of one node's execution: start and end
// timestamps plus the log entries its logic emitted. Sub-context traces are
// merged upward so one top-level invocation yields one consolidated list.
type Trace struct {
	// NodeID identifies the node this trace belongs to.
	NodeID string `json:"node_id"`
	// Start is the invocation start in Unix microseconds.
	Start int64 `json:"start"`
	// End is the invocation end in Unix microseconds; zero while running.
	End int64 `json:"end"`
	// Logs are the entries recorded during the invocation.
	Logs []LogEntry `json:"logs,omitempty"`
	// Aborted marks a stub recorded for a branch that was dropped at
	// hard-abort time and never reached a checkpoint.
	Aborted bool `json:"aborted,omitempty"`
}

// NewTrace starts a trace for the given node.
func NewTrace(nodeID string) Trace {
	return Trace{NodeID: nodeID, Start: time.Now().UnixMicro()}
}

// Finish stamps the end time. Idempotent: the first call wins.
func (t *Trace) Finish() {
	if t.End == 0 {
		t.End = time.Now().UnixMicro()
	}
}

// Finished reports whether the trace has been finalized.
func (t *Trace) Finished() bool { return t.End != 0 }

// HighestLevel returns the highest log level recorded on the trace, or
// LevelDebug for an empty trace.
func (t *Trace) HighestLevel() LogLevel {
	highest := LevelDebug
	for _, entry := range t.Logs {
		if entry.Level > highest {
			highest = entry.Level
		}
	}
	return highest
}

// sortTraces orders traces by start time so stable, reproducible output
// falls out of the deterministic walk order.
func sortTraces(traces []Trace) {
	sort.SliceStable(traces, func(i, j int) bool { return traces[i].Start < traces[j].Start })
}
