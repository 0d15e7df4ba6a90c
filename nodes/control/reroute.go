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

// RerouteNode passes its input through unchanged. It exists for board
// layout; a data value crosses it verbatim and an exec pulse re-fires.
type RerouteNode struct{}

// NewRerouteNode creates the reroute node.
func NewRerouteNode() flow.Logic { return &RerouteNode{} }

// Describe returns the node declaration.
func (r *RerouteNode) Describe() *board.Node {
	node := board.NewNode(
		"control_reroute",
		"Reroute",
		"Passes a value or pulse straight through",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("value_in", "Value", "Value to pass through", board.DataTypeGeneric)
	node.AddOutputPin("exec_out", "Output", "Re-fires the pulse", board.DataTypeExecution)
	node.AddOutputPin("value_out", "Value", "The unchanged value", board.DataTypeGeneric)
	return node
}

// Run copies the data input to the output and re-fires the pulse.
func (r *RerouteNode) Run(_ context.Context, ec *flow.Context) error {
	if value, err := ec.EvaluatePin("value_in"); err == nil {
		if err := ec.SetPinValue("value_out", value); err != nil {
			return err
		}
	}
	return ec.ActivateExecPin("exec_out")
}
