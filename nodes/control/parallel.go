//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package control implements the control-flow node catalog: fan-out,
// timeout, iteration, branching and sequencing.
package control

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
)

// Execution modes of the parallel node. Tasks mode runs branches as plain
// goroutines; threads mode hands each branch to a dedicated worker pool so
// CPU-bound branches cannot starve the shared scheduler.
const (
	ModeTasks   = "tasks"
	ModeThreads = "threads"
)

// ParallelNode fans out every node connected to its exec_out pins
// concurrently, bounded by a semaphore sized to the available parallelism,
// and activates done only once every branch reached a terminal state.
type ParallelNode struct{}

// NewParallelNode creates the parallel fan-out node.
func NewParallelNode() flow.Logic { return &ParallelNode{} }

// Describe returns the node declaration.
func (p *ParallelNode) Describe() *board.Node {
	node := board.NewNode(
		"control_parallel",
		"Parallel Execution",
		"Runs every connected branch concurrently, then signals done",
		"Control",
	)
	node.AddInputPin("exec_in", "Input", "Trigger pin", board.DataTypeExecution)
	node.AddInputPin("mode", "Mode", "Execution mode: tasks or threads", board.DataTypeString).
		WithDefault(ModeTasks)
	node.AddOutputPin("exec_out", "Branches", "Executed concurrently", board.DataTypeExecution)
	node.AddOutputPin("done", "Done", "Fires after every branch finished", board.DataTypeExecution)
	return node
}

// Run executes the fan-out join.
func (p *ParallelNode) Run(ctx context.Context, ec *flow.Context) error {
	if err := ec.DeactivateExecPin("done"); err != nil {
		return err
	}

	var targets []*flow.RuntimeNode
	for _, pin := range ec.Pins("exec_out") {
		targets = append(targets, pin.ConnectedNodes()...)
	}
	if len(targets) == 0 {
		return ec.ActivateExecPin("done")
	}

	mode, err := flow.EvaluatePin[string](ec, "mode")
	if err != nil {
		return err
	}

	limit := int64(runtime.NumCPU())
	sem := semaphore.NewWeighted(limit)
	subs := make([]*flow.Context, len(targets))
	errs := make([]error, len(targets))

	branch := func(i int, target *flow.RuntimeNode) {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("%w: %v", flow.ErrJoinFailed, err)
			return
		}
		defer sem.Release(1)
		sub := ec.CreateSubContext(target)
		subs[i] = sub
		errs[i] = flow.TriggerNode(ctx, sub)
	}

	var wg sync.WaitGroup
	switch mode {
	case ModeThreads:
		pool, err := ants.NewPool(int(limit))
		if err != nil {
			return fmt.Errorf("%w: %v", flow.ErrJoinFailed, err)
		}
		defer pool.Release()
		for i, target := range targets {
			i, target := i, target
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				branch(i, target)
			}); err != nil {
				errs[i] = fmt.Errorf("%w: %v", flow.ErrJoinFailed, err)
				wg.Done()
			}
		}
	default:
		for i, target := range targets {
			i, target := i, target
			wg.Add(1)
			go func() {
				defer wg.Done()
				branch(i, target)
			}()
		}
	}
	wg.Wait()

	// Join: fold every branch back in, failures logged on the parent so
	// siblings were never cancelled.
	for i, sub := range subs {
		if sub != nil {
			ec.PushSubContext(sub)
		}
		if errs[i] != nil {
			ec.Logf(flow.LevelError, "branch %d [%s] failed: %v",
				i, targets[i].ID(), errs[i])
		}
	}

	for _, pin := range ec.Pins("exec_out") {
		if err := ec.SetExecPinRef(pin, false); err != nil {
			return err
		}
	}
	return ec.ActivateExecPin("done")
}
