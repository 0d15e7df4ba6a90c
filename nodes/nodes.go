//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package nodes wires the built-in node catalog into a logic registry.
package nodes

import (
	"github.com/flowgraph/flowgraph/flow"
	"github.com/flowgraph/flowgraph/nodes/control"
	"github.com/flowgraph/flowgraph/nodes/events"
	"github.com/flowgraph/flowgraph/nodes/logging"
	"github.com/flowgraph/flowgraph/nodes/variables"
)

// RegisterAll registers the built-in catalog on the registry.
func RegisterAll(registry *flow.Registry) {
	registry.Register(events.NewSimpleEventNode)
	registry.Register(control.NewParallelNode)
	registry.Register(control.NewTimeoutNode)
	registry.Register(control.NewForEachNode)
	registry.Register(control.NewBranchNode)
	registry.Register(control.NewSequenceNode)
	registry.Register(control.NewRerouteNode)
	registry.Register(variables.NewGetNode)
	registry.Register(variables.NewSetNode)
	registry.Register(logging.NewLogNode)
}

// DefaultRegistry returns a registry with the whole built-in catalog.
func DefaultRegistry() *flow.Registry {
	registry := flow.NewRegistry()
	RegisterAll(registry)
	return registry
}
