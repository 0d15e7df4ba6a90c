//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package events implements the entry-point nodes a host triggers.
package events

import (
	"context"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// SimpleEventNode is the generic run entry point. The host seeds its
// payload input; the node republishes it and fires its pulse.
type SimpleEventNode struct{}

// NewSimpleEventNode creates the entry-point node.
func NewSimpleEventNode() flow.Logic { return &SimpleEventNode{} }

// Describe returns the node declaration.
func (s *SimpleEventNode) Describe() *board.Node {
	node := board.NewNode(
		"events_simple",
		"Simple Event",
		"Starts a run with a host-supplied payload",
		"Events",
	)
	node.Start = true
	node.AddInputPin("payload", "Payload", "Host-supplied payload", board.DataTypeGeneric)
	node.AddOutputPin("exec_out", "Output", "Fires when the run starts", board.DataTypeExecution)
	node.AddOutputPin("data", "Data", "The payload, republished", board.DataTypeGeneric)
	return node
}

// Run republishes the payload and fires the pulse.
func (s *SimpleEventNode) Run(_ context.Context, ec *flow.Context) error {
	if payload, err := ec.EvaluatePin("payload"); err == nil {
		if err := ec.SetPinValue("data", payload); err != nil {
			return err
		}
	}
	return ec.ActivateExecPin("exec_out")
}
