//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

func sandboxedNode() *board.Node {
	def := board.NewNode("sandbox_double", "Double", "Doubles a number", "Sandbox")
	def.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	def.AddInputPin("number", "Number", "", board.DataTypeFloat).WithDefault(21.0)
	def.AddOutputPin("exec_out", "Out", "", board.DataTypeExecution)
	def.AddOutputPin("result", "Result", "", board.DataTypeFloat)
	return def
}

func TestSandboxedLogicRun(t *testing.T) {
	def := sandboxedNode()
	var gotBundle InputBundle
	backend := BackendFunc(func(_ context.Context, bundle InputBundle) (*OutputBundle, error) {
		gotBundle = bundle
		n := bundle.Inputs["number"].(float64)
		return &OutputBundle{
			Outputs:      map[string]any{"result": n * 2},
			ActivatePins: []string{"exec_out"},
			Logs:         []string{"doubled"},
		}, nil
	})

	b := board.New("b-sandbox", "sandbox")
	b.AddNode(def)
	registry := flow.NewRegistry()
	registry.Register(func() flow.Logic { return NewLogic(def, backend) })

	var got any
	sinkDef := board.NewNode("test_sink", "Sink", "", "Test")
	sinkDef.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	sinkDef.AddInputPin("value", "Value", "", board.DataTypeFloat)
	registry.Register(func() flow.Logic {
		return &flow.LogicFunc{Node: sinkDef.Clone(), Fn: func(_ context.Context, ec *flow.Context) error {
			v, err := ec.EvaluatePin("value")
			if err != nil {
				return err
			}
			got = v
			return nil
		}}
	})
	b.AddNode(sinkDef)

	out, _ := def.PinByName("exec_out")
	in, _ := sinkDef.PinByName("exec_in")
	require.NoError(t, b.Connect(out.ID, in.ID))
	res, _ := def.PinByName("result")
	val, _ := sinkDef.PinByName("value")
	require.NoError(t, b.Connect(res.ID, val.ID))

	runner, err := flow.NewRunner(b, registry, flow.WithLogLevel(flow.LevelDebug))
	require.NoError(t, err)
	run, err := runner.Execute(context.Background(), flow.Payload{NodeID: def.ID})
	require.NoError(t, err)

	assert.Equal(t, flow.StatusSuccess, run.Status())
	assert.Equal(t, 42.0, got)
	assert.Equal(t, def.ID, gotBundle.NodeID)
	assert.Equal(t, "b-sandbox", gotBundle.BoardID)
	assert.Equal(t, 21.0, gotBundle.Inputs["number"])

	var logged bool
	for _, trace := range run.Traces() {
		for _, entry := range trace.Logs {
			if entry.Message == "doubled" {
				logged = true
			}
		}
	}
	assert.True(t, logged)
}

func TestSandboxedLogicErrorBundle(t *testing.T) {
	def := sandboxedNode()
	backend := BackendFunc(func(context.Context, InputBundle) (*OutputBundle, error) {
		return &OutputBundle{Error: "module crashed"}, nil
	})

	b := board.New("b-sandbox-err", "sandbox err")
	b.AddNode(def)
	registry := flow.NewRegistry()
	registry.Register(func() flow.Logic { return NewLogic(def, backend) })

	runner, err := flow.NewRunner(b, registry)
	require.NoError(t, err)
	run, err := runner.Execute(context.Background(), flow.Payload{NodeID: def.ID})
	require.ErrorContains(t, err, "module crashed")
	assert.Equal(t, flow.StatusFailed, run.Status())
}

func TestSandboxedLogicDescribe(t *testing.T) {
	def := sandboxedNode()
	logic := NewLogic(def, BackendFunc(func(context.Context, InputBundle) (*OutputBundle, error) {
		return &OutputBundle{}, nil
	}))

	described := logic.Describe()
	described.FriendlyName = "mutated"
	assert.Equal(t, "Double", def.FriendlyName)
}
