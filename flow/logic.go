//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowgraph/flowgraph/board"
)

// Logic is the behavior contract every node implements, native catalog
// behaviors and sandboxed backends alike.
type Logic interface {
	// Describe returns the static node and pin declaration.
	Describe() *board.Node
	// Run executes the node against its context: read inputs via
	// EvaluatePin, write outputs via SetPinValue, and activate or
	// deactivate the node's own control pins. ctx carries cancellation
	// from the nearest enclosing timeout or the run itself.
	Run(ctx context.Context, ec *Context) error
}

// Updater is an optional extension of Logic for nodes with dynamic pin
// shapes. OnUpdate returns a fresh declaration reflecting the node's current
// configuration; the board owner diffs and applies it between runs (see
// board.DiffPins), never while a run is in flight.
type Updater interface {
	OnUpdate(node *board.Node, b *board.Board) *board.Node
}

// LogicFunc adapts a function to the Logic interface using a fixed
// declaration.
type LogicFunc struct {
	Node *board.Node
	Fn   func(ctx context.Context, ec *Context) error
}

// Describe returns the fixed declaration.
func (l *LogicFunc) Describe() *board.Node { return l.Node }

// Run invokes the wrapped function.
func (l *LogicFunc) Run(ctx context.Context, ec *Context) error { return l.Fn(ctx, ec) }

// Registry maps registry names (board.Node.Name) to logic constructors.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]func() Logic
}

// NewRegistry creates an empty logic registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]func() Logic)}
}

// Register adds a logic constructor under the declaration's registry name.
func (r *Registry) Register(builder func() Logic) {
	name := builder().Describe().Name
	r.mu.Lock()
	r.builders[name] = builder
	r.mu.Unlock()
}

// Instantiate builds the logic for a node definition.
func (r *Registry) Instantiate(node *board.Node) (Logic, error) {
	r.mu.RLock()
	builder, ok := r.builders[node.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no logic registered for node type %q", node.Name)
	}
	return builder(), nil
}

// Names returns the registered logic names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}
