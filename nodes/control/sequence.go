//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package control

import (
	"context"
	"encoding/json"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// defaultSequenceSteps is the number of step pins a fresh sequence node
// declares; OnUpdate grows or shrinks the set from the steps input.
const defaultSequenceSteps = 2

// SequenceNode activates its step pins in declaration order. Propagation is
// depth first, so each step's entire downstream branch finishes before the
// next step starts.
type SequenceNode struct{}

// NewSequenceNode creates the sequence node.
func NewSequenceNode() flow.Logic { return &SequenceNode{} }

// Describe returns the node declaration.
func (s *SequenceNode) Describe() *board.Node {
	node := board.NewNode(
		"control_sequence",
		"Sequence",
		"Runs each step's branch to completion in order",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("steps", "Steps", "Number of step pins", board.DataTypeInteger).
		WithDefault(defaultSequenceSteps)
	for i := 0; i < defaultSequenceSteps; i++ {
		node.AddOutputPin("exec_out", "Step", "Executed in order", board.DataTypeExecution)
	}
	return node
}

// Run activates every step pin; the engine walks them in index order.
func (s *SequenceNode) Run(_ context.Context, ec *flow.Context) error {
	for _, pin := range ec.Pins("exec_out") {
		if err := ec.SetExecPinRef(pin, true); err != nil {
			return err
		}
	}
	return nil
}

// OnUpdate reconciles the step pin count with the steps input's default.
func (s *SequenceNode) OnUpdate(node *board.Node, _ *board.Board) *board.Node {
	fresh := node.Clone()
	steps := defaultSequenceSteps
	if pin, ok := fresh.PinByName("steps"); ok && len(pin.DefaultValue) > 0 {
		var v int
		if err := json.Unmarshal(pin.DefaultValue, &v); err == nil && v > 0 {
			steps = v
		}
	}
	current := fresh.PinsByName("exec_out")
	for i := len(current); i < steps; i++ {
		fresh.AddOutputPin("exec_out", "Step", "Executed in order", board.DataTypeExecution)
	}
	for i := len(current) - 1; i >= steps; i-- {
		fresh.RemovePin(current[i].ID)
	}
	return fresh
}
