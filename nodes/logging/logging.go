//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package logging implements the trace logging node.
package logging

import (
	"context"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// LogNode records a message on the invocation's trace.
type LogNode struct{}

// NewLogNode creates the logging node.
func NewLogNode() flow.Logic { return &LogNode{} }

// Describe returns the node declaration.
func (l *LogNode) Describe() *board.Node {
	node := board.NewNode(
		"logging_log",
		"Log Message",
		"Records a message on the run trace",
		"Logging",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("message", "Message", "Message to record", board.DataTypeString).
		WithDefault("")
	node.AddInputPin("level", "Level", "debug, info, warn, error or fatal", board.DataTypeString).
		WithDefault("info")
	node.AddOutputPin("exec_out", "Output", "Continues after the log", board.DataTypeExecution)
	return node
}

// Run records the message.
func (l *LogNode) Run(_ context.Context, ec *flow.Context) error {
	message, err := flow.EvaluatePin[string](ec, "message")
	if err != nil {
		return err
	}
	level, err := flow.EvaluatePin[string](ec, "level")
	if err != nil {
		return err
	}
	ec.Log(parseLevel(level), message)
	return ec.ActivateExecPin("exec_out")
}

func parseLevel(s string) flow.LogLevel {
	switch s {
	case "debug":
		return flow.LevelDebug
	case "warn":
		return flow.LevelWarn
	case "error":
		return flow.LevelError
	case "fatal":
		return flow.LevelFatal
	default:
		return flow.LevelInfo
	}
}
