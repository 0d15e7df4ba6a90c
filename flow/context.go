//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/flowgraph/flowgraph/board"
)

// Context is the per-invocation view a node's logic gets of the run: its own
// pins, the run's variables, and a trace to log into. Each node invocation
// receives a fresh Context; concurrent sub-executions receive sub-contexts
// with isolated override tables so they never race on shared pin cells.
type Context struct {
	run  *Run
	inst *Instance
	node *RuntimeNode

	trace Trace

	// guard holds the node IDs already executing on this branch of the
	// trigger chain. The trigger engine copies it per downstream branch.
	guard map[string]bool
	depth int

	mu        sync.Mutex
	subTraces []Trace
	overrides map[string]any
}

func newContext(run *Run, inst *Instance, node *RuntimeNode) *Context {
	return &Context{
		run:       run,
		inst:      inst,
		node:      node,
		trace:     NewTrace(node.ID()),
		guard:     make(map[string]bool),
		overrides: make(map[string]any),
	}
}

// Run returns the run this context belongs to.
func (ec *Context) Run() *Run { return ec.run }

// Instance returns the compiled instance being executed.
func (ec *Context) Instance() *Instance { return ec.inst }

// Node returns the node this context was created for.
func (ec *Context) Node() *RuntimeNode { return ec.node }

// Trace returns the invocation's own trace.
func (ec *Context) Trace() *Trace { return &ec.trace }

// pin resolves a pin on the context's node by name.
func (ec *Context) pin(name string) (*RuntimePin, error) {
	pin, ok := ec.node.PinByName(name)
	if !ok {
		return nil, &PinNotFoundError{NodeID: ec.node.ID(), Pin: name}
	}
	return pin, nil
}

// Pins resolves every pin with the given name on the context's node, in
// index order.
func (ec *Context) Pins(name string) []*RuntimePin {
	return ec.node.PinsByName(name)
}

// override looks up a value override for a pin ID anywhere up the context
// chain of this branch.
func (ec *Context) override(pinID string) (any, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	v, ok := ec.overrides[pinID]
	return v, ok
}

// OverridePinValue shadows a pin's value for this context and the
// sub-contexts created from it. Concurrent iterations use overrides instead
// of writing shared pin cells.
func (ec *Context) OverridePinValue(pinID string, value any) {
	ec.mu.Lock()
	ec.overrides[pinID] = value
	ec.mu.Unlock()
}

// ClearPinOverride removes an override.
func (ec *Context) ClearPinOverride(pinID string) {
	ec.mu.Lock()
	delete(ec.overrides, pinID)
	ec.mu.Unlock()
}

// EvaluatePin resolves the current value of one of the node's pins.
//
// Resolution order: a value override for the pin itself, the pin's own value
// cell, then the upstream sources in connection order (each subject to its
// own override), and finally the pin's literal default. ErrPinNotSet is
// returned when none of these yields a value.
func (ec *Context) EvaluatePin(name string) (any, error) {
	pin, err := ec.pin(name)
	if err != nil {
		return nil, err
	}
	return ec.evaluate(pin)
}

func (ec *Context) evaluate(pin *RuntimePin) (any, error) {
	if v, ok := ec.override(pin.ID); ok {
		return v, nil
	}
	if v, ok := pin.Value(); ok {
		return v, nil
	}
	for _, src := range pin.upstreamSources() {
		if v, ok := ec.override(src.ID); ok {
			return v, nil
		}
		if v, ok := src.Value(); ok {
			return v, nil
		}
		if v, ok := src.Default(); ok {
			return v, nil
		}
	}
	if v, ok := pin.Default(); ok {
		return v, nil
	}
	return nil, fmt.Errorf("pin %q on node %s: %w", pin.Name, ec.node.ID(), ErrPinNotSet)
}

// EvaluatePin resolves a pin value and coerces it into T via a JSON
// round trip, so float64-decoded numbers land cleanly in integer fields and
// maps land in structs.
func EvaluatePin[T any](ec *Context, name string) (T, error) {
	var out T
	v, err := ec.EvaluatePin(name)
	if err != nil {
		return out, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out, &TypeMismatchError{Pin: name, Want: fmt.Sprintf("%T", out), Err: err}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &TypeMismatchError{Pin: name, Want: fmt.Sprintf("%T", out), Err: err}
	}
	return out, nil
}

// SetPinValue stores a value on one of the node's pins for this run.
func (ec *Context) SetPinValue(name string, value any) error {
	pin, err := ec.pin(name)
	if err != nil {
		return err
	}
	pin.SetValue(value)
	return nil
}

// ActivateExecPin marks one of the node's output execution pins active so
// the trigger engine follows it after the logic returns. Activating an
// already active pin is a no-op.
func (ec *Context) ActivateExecPin(name string) error {
	return ec.setExecPin(name, true)
}

// DeactivateExecPin marks an output execution pin inactive.
func (ec *Context) DeactivateExecPin(name string) error {
	return ec.setExecPin(name, false)
}

func (ec *Context) setExecPin(name string, active bool) error {
	pin, err := ec.pin(name)
	if err != nil {
		return err
	}
	return ec.SetExecPinRef(pin, active)
}

// SetExecPinRef sets the activation state of an execution pin directly.
func (ec *Context) SetExecPinRef(pin *RuntimePin, active bool) error {
	if pin.DataType != board.DataTypeExecution {
		return fmt.Errorf("pin %q: %w", pin.Name, ErrNotExecutionPin)
	}
	if pin.Type != board.PinOutput && !pin.Relay {
		return fmt.Errorf("pin %q: %w", pin.Name, ErrNotOutputPin)
	}
	pin.SetValue(active)
	return nil
}

// ExecPinActive reports whether one of the node's input execution pins was
// activated by an upstream node. Unwired, unset pins are inactive.
func (ec *Context) ExecPinActive(name string) (bool, error) {
	pin, err := ec.pin(name)
	if err != nil {
		return false, err
	}
	if pin.DataType != board.DataTypeExecution {
		return false, fmt.Errorf("pin %q: %w", pin.Name, ErrNotExecutionPin)
	}
	if pin.Active() {
		return true, nil
	}
	for _, src := range pin.upstreamSources() {
		if src.Active() {
			return true, nil
		}
	}
	return false, nil
}

// Variable reads a run variable by name.
func (ec *Context) Variable(name string) (any, bool) {
	return ec.run.Variables().Get(name)
}

// SetVariable writes a run variable by name.
func (ec *Context) SetVariable(name string, value any) error {
	return ec.run.Variables().Set(name, value)
}

// CreateSubContext builds a child context for executing another node from
// inside this one. The child inherits the branch's recursion guard and a
// copy of the override table; its trace is folded back in by PushSubContext.
func (ec *Context) CreateSubContext(node *RuntimeNode) *Context {
	sub := newContext(ec.run, ec.inst, node)
	sub.depth = ec.depth + 1
	for id := range ec.guard {
		sub.guard[id] = true
	}
	ec.mu.Lock()
	for id, v := range ec.overrides {
		sub.overrides[id] = v
	}
	ec.mu.Unlock()
	return sub
}

// PushSubContext finishes a sub-context's trace and folds it, with any
// traces it collected itself, into this context. Safe to call from the
// goroutines of a concurrent fan-out.
func (ec *Context) PushSubContext(sub *Context) {
	sub.EndTrace()
	ec.mu.Lock()
	ec.subTraces = append(ec.subTraces, sub.trace)
	ec.subTraces = append(ec.subTraces, sub.subTraces...)
	ec.mu.Unlock()
}

// PushAbortedTrace records a stub trace for a branch that was dropped at
// hard-abort time before reaching any checkpoint, so aggregated output never
// silently loses a branch.
func (ec *Context) PushAbortedTrace(nodeID string) {
	t := NewTrace(nodeID)
	t.Aborted = true
	t.Finish()
	ec.mu.Lock()
	ec.subTraces = append(ec.subTraces, t)
	ec.mu.Unlock()
}

// EndTrace finishes the context's own trace. Idempotent.
func (ec *Context) EndTrace() {
	ec.mu.Lock()
	ec.trace.Finish()
	ec.mu.Unlock()
}

// Traces returns the context's own trace followed by every collected
// sub-trace, ordered by start time.
func (ec *Context) Traces() []Trace {
	ec.mu.Lock()
	all := make([]Trace, 0, len(ec.subTraces)+1)
	all = append(all, ec.trace)
	all = append(all, ec.subTraces...)
	ec.mu.Unlock()
	sortTraces(all)
	return all
}

// Log appends a message to the invocation's trace if the run's log level
// admits it. Safe to call from the goroutines of a concurrent fan-out.
func (ec *Context) Log(level LogLevel, msg string) {
	if level < ec.run.LogLevel() {
		return
	}
	entry := NewLogEntry(msg, level)
	entry.NodeID = ec.node.ID()
	ec.mu.Lock()
	ec.trace.Logs = append(ec.trace.Logs, entry)
	ec.mu.Unlock()
}

// Logf is Log with formatting.
func (ec *Context) Logf(level LogLevel, format string, args ...any) {
	ec.Log(level, fmt.Sprintf(format, args...))
}
