//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/internal/telemetry"
	"github.com/flowgraph/flowgraph/log"
)

// Pin names recognized by the automatic error route. A failing node that
// declares an "on_error" execution output hands the failure to the graph
// instead of failing the run.
const (
	PinOnError      = "on_error"
	PinErrorMessage = "error_message"
)

// maxDepth bounds sub-context nesting independently of the per-node
// invocation brake.
const maxDepth = 1024

// TriggerNode executes a node invocation and recursively follows every
// execution output its logic activated, depth first, in pin declaration
// order.
//
// Each recursion branch carries its own copy of the guard set, so a node may
// appear on two sibling branches yet still short-circuits the moment a
// branch loops back onto itself. The short circuit is a no-op outcome, never
// an error.
func TriggerNode(ctx context.Context, ec *Context) error {
	node := ec.node

	if ctx.Err() != nil {
		ec.trace.Aborted = true
		ec.EndTrace()
		return ctx.Err()
	}
	if ec.guard[node.ID()] {
		ec.Logf(LevelDebug, "node %s: %v", node.ID(), ErrRecursionBlocked)
		ec.EndTrace()
		return nil
	}
	ec.guard[node.ID()] = true
	if ec.depth > maxDepth {
		return fmt.Errorf("node %s: trigger depth %d exceeds limit", node.ID(), ec.depth)
	}
	if calls := node.execCalls.Add(1); calls > ec.run.MaxNodeCalls() {
		return fmt.Errorf("node %s: invocation count %d exceeds limit", node.ID(), calls)
	}

	ctx, span := telemetry.Tracer.Start(ctx, "flow.node",
		trace.WithAttributes(
			attribute.String("flow.node.id", node.ID()),
			attribute.String("flow.node.name", node.Name()),
			attribute.String("flow.run.id", ec.run.ID()),
		))
	defer span.End()

	ec.run.emit(node, StateRunning)
	err := node.Logic().Run(ctx, ec)
	telemetry.NodesExecuted.Add(ctx, 1)
	if err != nil {
		span.RecordError(err)
		nerr := &NodeError{NodeID: node.ID(), Name: node.Name(), Err: err}
		ec.Log(LevelError, nerr.Error())
		if !routeError(ec, err) {
			ec.run.emit(node, StateError)
			ec.EndTrace()
			return nerr
		}
		// The node still failed; streaming hosts see the error state even
		// though propagation continues along the error route.
		ec.run.emit(node, StateError)
		log.Debugf("node %s routed error to %q: %v", node.ID(), PinOnError, err)
	} else {
		ec.run.emit(node, StateSuccess)
	}

	var errs []error
	for _, pin := range node.OutputExecPins() {
		if !pin.Active() {
			continue
		}
		// Exec activation is a pulse: consume it before following so a
		// re-triggered node starts from a clean slate.
		pin.SetValue(false)
		for _, next := range pin.ConnectedNodes() {
			sub := ec.CreateSubContext(next)
			if err := TriggerNode(ctx, sub); err != nil {
				errs = append(errs, err)
			}
			ec.PushSubContext(sub)
		}
	}
	ec.EndTrace()
	// A failed branch never stops its siblings; failures surface joined.
	return errors.Join(errs...)
}

// routeError hands a logic failure to the node's on_error route if it
// declares one. Returns false when the node has no such pin, leaving the
// failure fatal for the branch.
func routeError(ec *Context, err error) bool {
	pin, ok := ec.node.PinByName(PinOnError)
	if !ok || pin.DataType != board.DataTypeExecution || pin.Type != board.PinOutput {
		return false
	}
	if msg, ok := ec.node.PinByName(PinErrorMessage); ok {
		msg.SetValue(err.Error())
	}
	pin.SetValue(true)
	return true
}
