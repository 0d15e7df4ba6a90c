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
	"sync/atomic"
	"time"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// TimeoutNode races its body branches against a deadline. On expiry it
// cancels the body's context, grants a cooperative grace period, then stops
// waiting; exactly one of completed or timed_out activates afterward.
type TimeoutNode struct{}

// NewTimeoutNode creates the timeout node.
func NewTimeoutNode() flow.Logic { return &TimeoutNode{} }

// Describe returns the node declaration.
func (t *TimeoutNode) Describe() *board.Node {
	node := board.NewNode(
		"control_timeout",
		"Timeout",
		"Runs the body under a deadline with cooperative cancellation",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("timeout_ms", "Timeout (ms)", "Deadline for the body", board.DataTypeInteger).
		WithDefault(1000)
	node.AddInputPin("grace_ms", "Grace (ms)", "Cooperative shutdown window after expiry", board.DataTypeInteger).
		WithDefault(100)
	node.AddOutputPin("body", "Body", "Executed under the deadline", board.DataTypeExecution)
	node.AddOutputPin("completed", "Completed", "Body finished in time", board.DataTypeExecution)
	node.AddOutputPin("timed_out", "Timed Out", "Deadline elapsed first", board.DataTypeExecution)
	return node
}

// Run executes the race.
func (t *TimeoutNode) Run(ctx context.Context, ec *flow.Context) error {
	if err := ec.DeactivateExecPin("completed"); err != nil {
		return err
	}
	if err := ec.DeactivateExecPin("timed_out"); err != nil {
		return err
	}

	timeoutMS, err := flow.EvaluatePin[int64](ec, "timeout_ms")
	if err != nil {
		return err
	}
	graceMS, err := flow.EvaluatePin[int64](ec, "grace_ms")
	if err != nil {
		return err
	}

	var targets []*flow.RuntimeNode
	for _, pin := range ec.Pins("body") {
		targets = append(targets, pin.ConnectedNodes()...)
	}
	if len(targets) == 0 {
		return ec.ActivateExecPin("completed")
	}

	bodyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Each branch claims its own completion exactly once; the abort path
	// claims the stragglers so no branch is recorded twice.
	claimed := make([]atomic.Bool, len(targets))
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i, target := range targets {
		i, target := i, target
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := ec.CreateSubContext(target)
			err := flow.TriggerNode(bodyCtx, sub)
			if !claimed[i].CompareAndSwap(false, true) {
				// Dropped at hard abort; the stub already stands in.
				return
			}
			ec.PushSubContext(sub)
			if err != nil && bodyCtx.Err() == nil {
				ec.Logf(flow.LevelError, "body branch %d [%s] failed: %v",
					i, target.ID(), err)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-done:
		return ec.ActivateExecPin("completed")
	case <-timer.C:
	}

	// Deadline elapsed: signal, grant the grace window, then stop waiting.
	cancel()
	grace := time.NewTimer(time.Duration(graceMS) * time.Millisecond)
	defer grace.Stop()
	select {
	case <-done:
	case <-grace.C:
		for i, target := range targets {
			if claimed[i].CompareAndSwap(false, true) {
				ec.PushAbortedTrace(target.ID())
			}
		}
	}
	ec.Logf(flow.LevelWarn, "body exceeded deadline of %dms", timeoutMS)
	return ec.ActivateExecPin("timed_out")
}
