//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/board"
)

func TestRunnerExecuteSuccess(t *testing.T) {
	var got any
	b := board.New("b-run", "run")
	registry := NewRegistry()

	defStart := board.NewNode("test_start", "Start", "", "Test")
	defStart.Start = true
	defStart.AddInputPin("payload", "Payload", "", board.DataTypeString)
	defStart.AddOutputPin("exec_out", "Out", "", board.DataTypeExecution)
	registry.Register(func() Logic {
		return &LogicFunc{Node: defStart.Clone(), Fn: func(_ context.Context, ec *Context) error {
			v, err := ec.EvaluatePin("payload")
			if err != nil {
				return err
			}
			got = v
			return ec.ActivateExecPin("exec_out")
		}}
	})
	defSink, builderSink := simpleNode("test_sink", nil)
	registry.Register(builderSink)
	b.AddNode(defStart)
	b.AddNode(defSink)
	out, _ := defStart.PinByName("exec_out")
	in, _ := defSink.PinByName("exec_in")
	require.NoError(t, b.Connect(out.ID, in.ID))

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	run, err := runner.Execute(context.Background(), Payload{
		Data: map[string]any{"payload": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, run.Status())
	assert.Equal(t, "hello", got)
	assert.NotEmpty(t, run.ID())
	assert.Len(t, run.Traces(), 2)
	assert.Greater(t, run.Duration().Microseconds(), int64(-1))
}

func TestRunnerExplicitStartNode(t *testing.T) {
	rec := &recorder{}
	b := board.New("b-explicit", "explicit")
	registry := NewRegistry()
	defA, builderA := simpleNode("test_a", func(*Context) error { rec.add("a"); return nil })
	defB, builderB := simpleNode("test_b", func(*Context) error { rec.add("b"); return nil })
	registry.Register(builderA)
	registry.Register(builderB)
	b.AddNode(defA)
	b.AddNode(defB)

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	run, err := runner.Execute(context.Background(), Payload{NodeID: defB.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, run.Status())
	assert.Equal(t, []string{"b"}, rec.names())
}

func TestRunnerNoStartNode(t *testing.T) {
	b := board.New("b-nostart", "nostart")
	registry := NewRegistry()
	defA, builderA := simpleNode("test_a", nil)
	registry.Register(builderA)
	b.AddNode(defA)

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	_, err = runner.Execute(context.Background(), Payload{})
	assert.ErrorContains(t, err, "no start node")

	_, err = runner.Execute(context.Background(), Payload{NodeID: "missing"})
	assert.ErrorContains(t, err, "not found")
}

func TestRunnerStatusFailed(t *testing.T) {
	b := board.New("b-failed", "failed")
	registry := NewRegistry()
	defBad, builderBad := simpleNode("test_bad", func(*Context) error {
		return errors.New("boom")
	})
	registry.Register(builderBad)
	defBad.Start = true
	b.AddNode(defBad)

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	run, err := runner.Execute(context.Background(), Payload{})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status())
	assert.Equal(t, LevelError, run.HighestLevel())
}

func TestRunnerVariableOverrides(t *testing.T) {
	b := board.New("b-vars", "vars")
	v := board.NewVariable("greeting", board.DataTypeString, board.ShapeSingle).
		WithDefault("hi")
	v.Exposed = true
	b.AddVariable(v)
	secret := board.NewVariable("token", board.DataTypeString, board.ShapeSingle)
	secret.Exposed = true
	secret.Secret = true
	b.AddVariable(secret)

	var got any
	registry := NewRegistry()
	defA, builderA := simpleNode("test_a", func(ec *Context) error {
		got, _ = ec.Variable("greeting")
		return nil
	})
	registry.Register(builderA)
	defA.Start = true
	b.AddNode(defA)

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	run, err := runner.Execute(context.Background(), Payload{
		Variables: map[string]any{"greeting": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, run.Status())
	assert.Equal(t, "hello", got)

	// Secret variables reject payload overrides.
	_, err = runner.Execute(context.Background(), Payload{
		Variables: map[string]any{"token": "stolen"},
	})
	assert.ErrorContains(t, err, "not overridable")
}

func TestRunnerStateCallback(t *testing.T) {
	var mu sync.Mutex
	var changes []StateChange
	b := board.New("b-stream", "stream")
	registry := NewRegistry()
	defA, builderA := simpleNode("test_a", nil)
	registry.Register(builderA)
	defA.Start = true
	b.AddNode(defA)

	runner, err := NewRunner(b, registry, WithStateCallback(func(c StateChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	}))
	require.NoError(t, err)

	run, err := runner.Execute(context.Background(), Payload{})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, StateRunning, changes[0].State)
	assert.Equal(t, StateSuccess, changes[1].State)
	assert.Equal(t, run.ID(), changes[0].RunID)
	assert.Equal(t, defA.ID, changes[0].NodeID)
}

func TestRunnerResetBetweenRuns(t *testing.T) {
	var calls int
	b := board.New("b-reset", "reset")
	registry := NewRegistry()
	defA, builderA := simpleNode("test_a", func(*Context) error { calls++; return nil })
	registry.Register(builderA)
	defA.Start = true
	b.AddNode(defA)

	runner, err := NewRunner(b, registry)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		run, err := runner.Execute(context.Background(), Payload{})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, run.Status())
	}
	assert.Equal(t, 3, calls)
}

func TestVariablesStore(t *testing.T) {
	b := board.New("b-varstore", "varstore")
	b.AddVariable(board.NewVariable("counter", board.DataTypeInteger, board.ShapeSingle).
		WithDefault(1))
	secret := board.NewVariable("key", board.DataTypeString, board.ShapeSingle).
		WithDefault("s3cret")
	secret.Secret = true
	b.AddVariable(secret)

	vars := NewVariables(b)
	v, ok := vars.Get("counter")
	require.True(t, ok)
	assert.Equal(t, float64(1), v)

	require.NoError(t, vars.Set("counter", 2))
	v, _ = vars.Get("counter")
	assert.Equal(t, 2, v)

	assert.Error(t, vars.Set("undeclared", 1))

	snapshot := vars.Snapshot()
	assert.Contains(t, snapshot, "counter")
	assert.NotContains(t, snapshot, "key")
}

func TestRunFinishIdempotent(t *testing.T) {
	run := &Run{status: StatusRunning}
	require.NoError(t, run.finish(StatusSuccess))
	assert.ErrorIs(t, run.finish(StatusFailed), ErrRunFinished)
	assert.Equal(t, StatusSuccess, run.Status())
}
