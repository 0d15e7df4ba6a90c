//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrPinNotSet is returned when a connected data input is evaluated
	// before its upstream node produced a value.
	ErrPinNotSet = errors.New("pin value not set")
	// ErrNotExecutionPin is returned when exec-pin operations target a data pin.
	ErrNotExecutionPin = errors.New("pin is not an execution pin")
	// ErrNotOutputPin is returned when activation targets an input pin.
	ErrNotOutputPin = errors.New("pin is not an output pin")
	// ErrRecursionBlocked marks a cycle short-circuit. It is a terminal
	// outcome, not a failure; the trigger engine never surfaces it to callers.
	ErrRecursionBlocked = errors.New("recursion blocked")
	// ErrJoinFailed is returned when a parallel or pooled branch could not
	// be awaited.
	ErrJoinFailed = errors.New("branch join failed")
	// ErrRunFinished is returned when a finished run is triggered again.
	ErrRunFinished = errors.New("run already finished")
)

// PinNotFoundError is returned when a named pin does not exist on the node.
type PinNotFoundError struct {
	NodeID string
	Pin    string
}

func (e *PinNotFoundError) Error() string {
	return fmt.Sprintf("pin %q not found on node %s", e.Pin, e.NodeID)
}

// TypeMismatchError is returned when a stored pin value cannot be coerced to
// the requested shape.
type TypeMismatchError struct {
	Pin  string
	Want string
	Err  error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("pin %q value cannot be coerced to %s: %v", e.Pin, e.Want, e.Err)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// NodeError wraps a failure of a node's own logic. It halts the failed
// node's downstream propagation but never sibling branches.
type NodeError struct {
	NodeID string
	Name   string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s [%s] failed: %v", e.Name, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
