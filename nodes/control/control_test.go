//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package control

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// recorder collects labels in execution order.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(label string) {
	r.mu.Lock()
	r.order = append(r.order, label)
	r.mu.Unlock()
}

func (r *recorder) labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// sinkNode declares exec_in only and runs fn.
func sinkNode(name string, fn func(ec *flow.Context) error) (*board.Node, func() flow.Logic) {
	def := board.NewNode(name, name, "", "Test")
	def.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	builder := func() flow.Logic {
		return &flow.LogicFunc{
			Node: def.Clone(),
			Fn: func(_ context.Context, ec *flow.Context) error {
				if fn == nil {
					return nil
				}
				return fn(ec)
			},
		}
	}
	return def, builder
}

func connect(t *testing.T, b *board.Board, from *board.Node, fromPin string, to *board.Node, toPin string) {
	t.Helper()
	out, ok := from.PinByName(fromPin)
	require.True(t, ok)
	in, ok := to.PinByName(toPin)
	require.True(t, ok)
	require.NoError(t, b.Connect(out.ID, in.ID))
}

// runNode compiles the board and triggers the given node once.
func runNode(t *testing.T, b *board.Board, registry *flow.Registry, nodeID string) *flow.Run {
	t.Helper()
	runner, err := flow.NewRunner(b, registry, flow.WithLogLevel(flow.LevelDebug))
	require.NoError(t, err)
	run, err := runner.Execute(context.Background(), flow.Payload{NodeID: nodeID})
	require.NoError(t, err)
	return run
}
