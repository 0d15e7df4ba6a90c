//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package control

import (
	"context"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// ForEachNode iterates an array sequentially, publishing the element and its
// index before triggering the body. The break input is re-read before every
// iteration and after every body execution, so a body node that sets it
// stops the loop on the very next check.
type ForEachNode struct{}

// NewForEachNode creates the break-capable iteration node.
func NewForEachNode() flow.Logic { return &ForEachNode{} }

// Describe returns the node declaration.
func (f *ForEachNode) Describe() *board.Node {
	node := board.NewNode(
		"control_for_each",
		"For Each",
		"Iterates an array sequentially with break support",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("array", "Array", "Array to iterate", board.DataTypeGeneric).
		WithShape(board.ShapeArray)
	node.AddInputPin("break", "Break", "Stops the loop when true", board.DataTypeBoolean).
		WithDefault(false)
	node.AddOutputPin("exec_out", "Loop Body", "Executed per element", board.DataTypeExecution)
	node.AddOutputPin("value", "Value", "Current element", board.DataTypeGeneric)
	node.AddOutputPin("index", "Index", "Current index", board.DataTypeInteger)
	node.AddOutputPin("done", "Done", "Fires after the last iteration or break", board.DataTypeExecution)
	return node
}

// Run executes the loop.
func (f *ForEachNode) Run(ctx context.Context, ec *flow.Context) error {
	if err := ec.DeactivateExecPin("done"); err != nil {
		return err
	}

	array, err := flow.EvaluatePin[[]any](ec, "array")
	if err != nil {
		return err
	}

	shouldBreak := func() bool {
		v, err := flow.EvaluatePin[bool](ec, "break")
		if err != nil {
			ec.Logf(flow.LevelWarn, "break pin unreadable, looping on: %v", err)
			return false
		}
		return v
	}

	body := ec.Pins("exec_out")
	for i, item := range array {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if shouldBreak() {
			break
		}
		if err := ec.SetPinValue("value", item); err != nil {
			return err
		}
		if err := ec.SetPinValue("index", i); err != nil {
			return err
		}
		for _, pin := range body {
			for _, target := range pin.ConnectedNodes() {
				sub := ec.CreateSubContext(target)
				if err := flow.TriggerNode(ctx, sub); err != nil {
					ec.Logf(flow.LevelError, "iteration %d [%s] failed: %v",
						i, target.ID(), err)
				}
				ec.PushSubContext(sub)
			}
		}
		if shouldBreak() {
			break
		}
	}
	return ec.ActivateExecPin("done")
}
