//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package sandbox adapts external execution backends to the node logic
// contract. The engine hands a backend a serialized input bundle and maps
// the result bundle back onto pins; the backend's internal ABI, capability
// model and caching are its own business.
package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// InputBundle is the serialized invocation a backend receives.
type InputBundle struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`
	// NodeID identifies the invoking node.
	NodeID string `json:"node_id"`
	// BoardID identifies the board.
	BoardID string `json:"board_id"`
	// Inputs maps input pin names to their evaluated values.
	Inputs map[string]any `json:"inputs"`
	// Variables is the run's variable snapshot, secrets redacted.
	Variables map[string]any `json:"variables,omitempty"`
}

// OutputBundle is the serialized result a backend returns.
type OutputBundle struct {
	// Outputs maps output pin names to produced values.
	Outputs map[string]any `json:"outputs,omitempty"`
	// ActivatePins names the execution pins to activate.
	ActivatePins []string `json:"activate_pins,omitempty"`
	// Error carries a failure message; non-empty fails the node.
	Error string `json:"error,omitempty"`
	// Logs are messages to record on the node's trace.
	Logs []string `json:"logs,omitempty"`
}

// Backend executes one sandboxed node invocation.
type Backend interface {
	Execute(ctx context.Context, bundle InputBundle) (*OutputBundle, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, bundle InputBundle) (*OutputBundle, error)

// Execute invokes the wrapped function.
func (f BackendFunc) Execute(ctx context.Context, bundle InputBundle) (*OutputBundle, error) {
	return f(ctx, bundle)
}

// Logic bridges a node declaration to a backend.
type Logic struct {
	def     *board.Node
	backend Backend
}

var _ flow.Logic = (*Logic)(nil)

// NewLogic creates sandboxed logic for the given declaration.
func NewLogic(def *board.Node, backend Backend) *Logic {
	return &Logic{def: def, backend: backend}
}

// Describe returns the node declaration.
func (l *Logic) Describe() *board.Node { return l.def.Clone() }

// Run serializes the node's inputs, delegates to the backend and maps the
// result bundle back onto the node's pins.
func (l *Logic) Run(ctx context.Context, ec *flow.Context) error {
	bundle := InputBundle{
		RunID:     ec.Run().ID(),
		NodeID:    ec.Node().ID(),
		BoardID:   ec.Instance().Board().ID,
		Inputs:    make(map[string]any),
		Variables: ec.Run().Variables().Snapshot(),
	}
	for _, pin := range ec.Node().Definition().SortedPins() {
		if pin.Type != board.PinInput || pin.IsExecution() {
			continue
		}
		value, err := ec.EvaluatePin(pin.Name)
		if err != nil {
			if errors.Is(err, flow.ErrPinNotSet) {
				continue
			}
			return err
		}
		bundle.Inputs[pin.Name] = value
	}

	out, err := l.backend.Execute(ctx, bundle)
	if err != nil {
		return fmt.Errorf("sandbox backend: %w", err)
	}
	for _, msg := range out.Logs {
		ec.Log(flow.LevelInfo, msg)
	}
	if out.Error != "" {
		return errors.New(out.Error)
	}
	for name, value := range out.Outputs {
		if err := ec.SetPinValue(name, value); err != nil {
			return err
		}
	}
	for _, name := range out.ActivatePins {
		if err := ec.ActivateExecPin(name); err != nil {
			return err
		}
	}
	return nil
}
