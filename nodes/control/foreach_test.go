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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// buildLoop wires a for-each node over [1,2,3,4,5] to a body that records
// (index, value) pairs and optionally breaks at a given index.
func buildLoop(t *testing.T, breakAt int) (*board.Board, *flow.Registry, string, *loopLog) {
	t.Helper()
	b := board.New("b-loop", "loop")
	registry := flow.NewRegistry()
	registry.Register(NewForEachNode)

	loop := (&ForEachNode{}).Describe()
	setDefault(t, loop, "array", []int{1, 2, 3, 4, 5})
	b.AddNode(loop)

	log := &loopLog{}
	bodyDef := board.NewNode("test_loop_body", "Loop Body", "", "Test")
	bodyDef.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	bodyDef.AddInputPin("index", "Index", "", board.DataTypeInteger)
	bodyDef.AddInputPin("value", "Value", "", board.DataTypeGeneric)
	bodyDef.AddOutputPin("stop", "Stop", "", board.DataTypeBoolean)
	registry.Register(func() flow.Logic {
		return &flow.LogicFunc{Node: bodyDef.Clone(), Fn: func(_ context.Context, ec *flow.Context) error {
			index, err := flow.EvaluatePin[int](ec, "index")
			if err != nil {
				return err
			}
			value, err := flow.EvaluatePin[int](ec, "value")
			if err != nil {
				return err
			}
			log.add(index, value)
			if breakAt >= 0 && index == breakAt {
				return ec.SetPinValue("stop", true)
			}
			return nil
		}}
	})
	b.AddNode(bodyDef)

	connect(t, b, loop, "exec_out", bodyDef, "exec_in")
	connect(t, b, loop, "index", bodyDef, "index")
	connect(t, b, loop, "value", bodyDef, "value")
	// The break flag is an explicit pin wired back from inside the body.
	connect(t, b, bodyDef, "stop", loop, "break")

	done, doneBuilder := sinkNode("test_done", func(*flow.Context) error {
		log.done()
		return nil
	})
	registry.Register(doneBuilder)
	b.AddNode(done)
	connect(t, b, loop, "done", done, "exec_in")
	return b, registry, loop.ID, log
}

type loopLog struct {
	mu        sync.Mutex
	indices   []int
	values    []int
	doneCount int
}

func (l *loopLog) add(index, value int) {
	l.mu.Lock()
	l.indices = append(l.indices, index)
	l.values = append(l.values, value)
	l.mu.Unlock()
}

func (l *loopLog) done() {
	l.mu.Lock()
	l.doneCount++
	l.mu.Unlock()
}

func TestForEachAllIterations(t *testing.T) {
	b, registry, id, log := buildLoop(t, -1)
	run := runNode(t, b, registry, id)

	assert.Equal(t, flow.StatusSuccess, run.Status())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, log.indices)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, log.values)
	assert.Equal(t, 1, log.doneCount)
}

func TestForEachBreakMidway(t *testing.T) {
	b, registry, id, log := buildLoop(t, 2)
	run := runNode(t, b, registry, id)

	assert.Equal(t, flow.StatusSuccess, run.Status())
	// The iteration that raises the break still finishes; no further
	// iterations start.
	assert.Equal(t, []int{0, 1, 2}, log.indices)
	assert.Equal(t, 1, log.doneCount)
}

func TestForEachBreakAtEntry(t *testing.T) {
	b, registry, id, log := buildLoop(t, -1)
	loopNode, ok := b.Node(id)
	require.True(t, ok)
	setDefault(t, loopNode, "break", true)

	run := runNode(t, b, registry, id)
	assert.Equal(t, flow.StatusSuccess, run.Status())
	assert.Empty(t, log.indices)
	assert.Equal(t, 1, log.doneCount)
}

func TestForEachUnreadableBreakWarns(t *testing.T) {
	b, registry, id, log := buildLoop(t, -1)
	loopNode, ok := b.Node(id)
	require.True(t, ok)
	// A break value no coercion can make a bool of.
	setDefault(t, loopNode, "break", "sometimes")

	run := runNode(t, b, registry, id)
	assert.Equal(t, flow.StatusSuccess, run.Status())
	// The loop runs to completion but flags the broken wiring.
	assert.Equal(t, []int{0, 1, 2, 3, 4}, log.indices)

	var warned bool
	for _, trace := range run.Traces() {
		if trace.NodeID != id {
			continue
		}
		for _, entry := range trace.Logs {
			if entry.Level == flow.LevelWarn {
				warned = true
			}
		}
	}
	assert.True(t, warned)
}

func TestForEachEmptyArray(t *testing.T) {
	b, registry, id, log := buildLoop(t, -1)
	loopNode, ok := b.Node(id)
	require.True(t, ok)
	setDefault(t, loopNode, "array", []int{})

	run := runNode(t, b, registry, id)
	assert.Equal(t, flow.StatusSuccess, run.Status())
	assert.Empty(t, log.indices)
	assert.Equal(t, 1, log.doneCount)
}
