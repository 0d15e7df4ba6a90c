//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/board"
)

// passthroughBuilder returns logic that does nothing; behavior under test
// lives in the contexts themselves.
func passthroughBuilder(def *board.Node) func() Logic {
	return func() Logic {
		return &LogicFunc{
			Node: def.Clone(),
			Fn:   func(context.Context, *Context) error { return nil },
		}
	}
}

// compileTestBoard compiles a two-node board: producer with a data output
// and an exec output, consumer with matching inputs.
func compileTestBoard(t *testing.T) (*Instance, *Run, *RuntimeNode, *RuntimeNode) {
	t.Helper()

	b := board.New("b-ctx", "context test")
	producer := board.NewNode("test_producer", "Producer", "", "Test")
	producer.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	producer.AddOutputPin("exec_out", "Out", "", board.DataTypeExecution)
	producer.AddOutputPin("result", "Result", "", board.DataTypeString)
	consumer := board.NewNode("test_consumer", "Consumer", "", "Test")
	consumer.AddInputPin("exec_in", "In", "", board.DataTypeExecution)
	consumer.AddInputPin("input", "Input", "", board.DataTypeString).
		WithDefault("fallback")
	b.AddNode(producer)
	b.AddNode(consumer)

	out, _ := producer.PinByName("exec_out")
	in, _ := consumer.PinByName("exec_in")
	require.NoError(t, b.Connect(out.ID, in.ID))
	res, _ := producer.PinByName("result")
	inp, _ := consumer.PinByName("input")
	require.NoError(t, b.Connect(res.ID, inp.ID))

	registry := NewRegistry()
	registry.Register(passthroughBuilder(producer))
	registry.Register(passthroughBuilder(consumer))

	inst, err := Compile(b, registry)
	require.NoError(t, err)

	run := &Run{
		id:           "run-test",
		inst:         inst,
		vars:         NewVariables(b),
		logLevel:     LevelDebug,
		maxNodeCalls: defaultMaxNodeCalls,
		status:       StatusRunning,
	}
	p, ok := inst.Node(producer.ID)
	require.True(t, ok)
	c, ok := inst.Node(consumer.ID)
	require.True(t, ok)
	return inst, run, p, c
}

func TestEvaluatePinDefault(t *testing.T) {
	inst, run, _, consumer := compileTestBoard(t)
	ec := newContext(run, inst, consumer)

	// Upstream never produced; the literal default wins.
	v, err := ec.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestEvaluatePinRoundTrip(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	pec := newContext(run, inst, producer)
	require.NoError(t, pec.SetPinValue("result", "hello"))

	cec := newContext(run, inst, consumer)
	v, err := cec.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	structured := map[string]any{"a": []any{1.0, 2.0}, "b": "x"}
	require.NoError(t, pec.SetPinValue("result", structured))
	v, err = cec.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, structured, v)
}

func TestEvaluatePinNotFound(t *testing.T) {
	inst, run, _, consumer := compileTestBoard(t)
	ec := newContext(run, inst, consumer)

	_, err := ec.EvaluatePin("missing")
	var notFound *PinNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Pin)
}

func TestEvaluatePinUnset(t *testing.T) {
	inst, run, producer, _ := compileTestBoard(t)
	ec := newContext(run, inst, producer)

	// Output pin with no value, no upstream, no default.
	_, err := ec.EvaluatePin("result")
	assert.ErrorIs(t, err, ErrPinNotSet)
}

func TestEvaluatePinOverride(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	pec := newContext(run, inst, producer)
	require.NoError(t, pec.SetPinValue("result", "upstream"))

	cec := newContext(run, inst, consumer)
	pin, ok := consumer.PinByName("input")
	require.True(t, ok)
	cec.OverridePinValue(pin.ID, "override")

	v, err := cec.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "override", v)

	cec.ClearPinOverride(pin.ID)
	v, err = cec.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "upstream", v)
}

func TestSubContextInheritsOverrides(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	parent := newContext(run, inst, producer)
	pin, ok := consumer.PinByName("input")
	require.True(t, ok)
	parent.OverridePinValue(pin.ID, "inherited")

	sub := parent.CreateSubContext(consumer)
	v, err := sub.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "inherited", v)

	// Child table is a copy: later parent edits do not leak in.
	parent.OverridePinValue(pin.ID, "changed")
	v, err = sub.EvaluatePin("input")
	require.NoError(t, err)
	assert.Equal(t, "inherited", v)
}

func TestEvaluatePinTypedCoercion(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	pec := newContext(run, inst, producer)
	require.NoError(t, pec.SetPinValue("result", 42.0))

	cec := newContext(run, inst, consumer)
	n, err := EvaluatePin[int](cec, "input")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	require.NoError(t, pec.SetPinValue("result", "not a number"))
	_, err = EvaluatePin[int](cec, "input")
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestExecPinIdempotence(t *testing.T) {
	inst, run, producer, _ := compileTestBoard(t)
	ec := newContext(run, inst, producer)
	pin, ok := producer.PinByName("exec_out")
	require.True(t, ok)

	// Deactivating an inactive pin is a no-op.
	require.NoError(t, ec.DeactivateExecPin("exec_out"))
	assert.False(t, pin.Active())

	// Activating twice leaves the same state as activating once.
	require.NoError(t, ec.ActivateExecPin("exec_out"))
	require.NoError(t, ec.ActivateExecPin("exec_out"))
	assert.True(t, pin.Active())

	require.NoError(t, ec.DeactivateExecPin("exec_out"))
	require.NoError(t, ec.DeactivateExecPin("exec_out"))
	assert.False(t, pin.Active())
}

func TestExecPinKindChecks(t *testing.T) {
	inst, run, producer, _ := compileTestBoard(t)
	ec := newContext(run, inst, producer)

	assert.ErrorIs(t, ec.ActivateExecPin("result"), ErrNotExecutionPin)
	assert.ErrorIs(t, ec.ActivateExecPin("exec_in"), ErrNotOutputPin)
}

func TestExecPinActiveFollowsUpstream(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	pec := newContext(run, inst, producer)
	require.NoError(t, pec.ActivateExecPin("exec_out"))

	cec := newContext(run, inst, consumer)
	active, err := cec.ExecPinActive("exec_in")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestPushSubContextMergesTraces(t *testing.T) {
	inst, run, producer, consumer := compileTestBoard(t)
	parent := newContext(run, inst, producer)
	sub := parent.CreateSubContext(consumer)
	sub.Log(LevelInfo, "inside sub")
	parent.PushSubContext(sub)
	parent.EndTrace()

	traces := parent.Traces()
	require.Len(t, traces, 2)
	ids := []string{traces[0].NodeID, traces[1].NodeID}
	assert.Contains(t, ids, producer.ID())
	assert.Contains(t, ids, consumer.ID())
	assert.True(t, sub.Trace().Finished())
}

func TestLogLevelFilter(t *testing.T) {
	inst, run, producer, _ := compileTestBoard(t)
	run.logLevel = LevelWarn
	ec := newContext(run, inst, producer)
	ec.Log(LevelDebug, "dropped")
	ec.Log(LevelError, "kept")

	require.Len(t, ec.Trace().Logs, 1)
	assert.Equal(t, "kept", ec.Trace().Logs[0].Message)
	assert.Equal(t, LevelError, ec.Trace().HighestLevel())
}

func TestLogConcurrent(t *testing.T) {
	inst, run, producer, _ := compileTestBoard(t)
	ec := newContext(run, inst, producer)

	// Fan-out branches log onto their parent from their own goroutines.
	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ec.Log(LevelInfo, "branch entry")
		}()
	}
	wg.Wait()

	assert.Len(t, ec.Trace().Logs, writers)
}
