//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package variables implements the run-variable access nodes.
package variables

import (
	"context"
	"fmt"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// GetNode reads a run variable onto its value output.
type GetNode struct{}

// NewGetNode creates the variable read node.
func NewGetNode() flow.Logic { return &GetNode{} }

// Describe returns the node declaration.
func (g *GetNode) Describe() *board.Node {
	node := board.NewNode(
		"variables_get",
		"Get Variable",
		"Reads a run variable",
		"Variables",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("name", "Name", "Variable name", board.DataTypeString)
	node.AddOutputPin("exec_out", "Output", "Continues after the read", board.DataTypeExecution)
	node.AddOutputPin("value", "Value", "The variable's value", board.DataTypeGeneric)
	return node
}

// Run reads the variable.
func (g *GetNode) Run(_ context.Context, ec *flow.Context) error {
	name, err := flow.EvaluatePin[string](ec, "name")
	if err != nil {
		return err
	}
	value, ok := ec.Variable(name)
	if !ok {
		return fmt.Errorf("variable %q has no value", name)
	}
	if err := ec.SetPinValue("value", value); err != nil {
		return err
	}
	return ec.ActivateExecPin("exec_out")
}

// SetNode writes a run variable.
type SetNode struct{}

// NewSetNode creates the variable write node.
func NewSetNode() flow.Logic { return &SetNode{} }

// Describe returns the node declaration.
func (s *SetNode) Describe() *board.Node {
	node := board.NewNode(
		"variables_set",
		"Set Variable",
		"Writes a run variable",
		"Variables",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("name", "Name", "Variable name", board.DataTypeString)
	node.AddInputPin("value", "Value", "Value to store", board.DataTypeGeneric)
	node.AddOutputPin("exec_out", "Output", "Continues after the write", board.DataTypeExecution)
	return node
}

// Run writes the variable.
func (s *SetNode) Run(_ context.Context, ec *flow.Context) error {
	name, err := flow.EvaluatePin[string](ec, "name")
	if err != nil {
		return err
	}
	value, err := ec.EvaluatePin("value")
	if err != nil {
		return err
	}
	if err := ec.SetVariable(name, value); err != nil {
		return err
	}
	return ec.ActivateExecPin("exec_out")
}
