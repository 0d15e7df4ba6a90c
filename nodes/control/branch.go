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

// BranchNode routes control flow on a boolean condition.
type BranchNode struct{}

// NewBranchNode creates the branch node.
func NewBranchNode() flow.Logic { return &BranchNode{} }

// Describe returns the node declaration.
func (b *BranchNode) Describe() *board.Node {
	node := board.NewNode(
		"control_branch",
		"Branch",
		"Routes execution on a boolean condition",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("condition", "Condition", "Route selector", board.DataTypeBoolean).
		WithDefault(false)
	node.AddOutputPin("true", "True", "Fires when the condition holds", board.DataTypeExecution)
	node.AddOutputPin("false", "False", "Fires when the condition is false", board.DataTypeExecution)
	return node
}

// Run evaluates the condition and activates exactly one route.
func (b *BranchNode) Run(_ context.Context, ec *flow.Context) error {
	condition, err := flow.EvaluatePin[bool](ec, "condition")
	if err != nil {
		return err
	}
	if err := ec.DeactivateExecPin("true"); err != nil {
		return err
	}
	if err := ec.DeactivateExecPin("false"); err != nil {
		return err
	}
	if condition {
		return ec.ActivateExecPin("true")
	}
	return ec.ActivateExecPin("false")
}
