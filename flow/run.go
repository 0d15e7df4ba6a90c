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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/internal/telemetry"
	"github.com/flowgraph/flowgraph/log"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// StatusRunning means the run is in flight.
	StatusRunning RunStatus = "running"
	// StatusSuccess means every triggered branch completed.
	StatusSuccess RunStatus = "success"
	// StatusFailed means at least one branch failed without an error route.
	StatusFailed RunStatus = "failed"
	// StatusStopped means the run was cancelled or timed out from outside.
	StatusStopped RunStatus = "stopped"
)

// defaultMaxNodeCalls brakes runaway propagation; a single node re-entering
// this many times in one run is a graph bug, not a workload.
const defaultMaxNodeCalls = 128000

// StateChange is one node lifecycle transition, streamed to the run's state
// callback as execution proceeds.
type StateChange struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`
	// NodeID identifies the node.
	NodeID string `json:"node_id"`
	// State is the new lifecycle state.
	State NodeState `json:"state"`
	// Time is the transition time in Unix microseconds.
	Time int64 `json:"time"`
}

// StateCallback receives node state transitions. Callbacks run on executing
// goroutines and must not block.
type StateCallback func(StateChange)

// Run is one execution of a compiled instance: status, variables, and the
// aggregated traces of every invocation it triggered.
type Run struct {
	id           string
	inst         *Instance
	vars         *Variables
	logLevel     LogLevel
	maxNodeCalls uint64
	onState      StateCallback

	mu     sync.Mutex
	status RunStatus
	start  int64
	end    int64
	traces []Trace
}

// ID returns the run's unique ID.
func (r *Run) ID() string { return r.id }

// Variables returns the run's variable store.
func (r *Run) Variables() *Variables { return r.vars }

// LogLevel returns the minimum level trace logging records.
func (r *Run) LogLevel() LogLevel { return r.logLevel }

// MaxNodeCalls returns the per-node invocation brake.
func (r *Run) MaxNodeCalls() uint64 { return r.maxNodeCalls }

// Status returns the run's current status.
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Traces returns every trace the run collected, ordered by start time.
func (r *Run) Traces() []Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Trace, len(r.traces))
	copy(out, r.traces)
	sortTraces(out)
	return out
}

// HighestLevel returns the highest log level recorded across the run.
func (r *Run) HighestLevel() LogLevel {
	highest := LevelDebug
	for _, t := range r.Traces() {
		if l := t.HighestLevel(); l > highest {
			highest = l
		}
	}
	return highest
}

// Duration returns the wall time the run took; zero while running.
func (r *Run) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.end == 0 {
		return 0
	}
	return time.Duration(r.end-r.start) * time.Microsecond
}

func (r *Run) emit(node *RuntimeNode, state NodeState) {
	if r.onState == nil {
		return
	}
	r.onState(StateChange{
		RunID:  r.id,
		NodeID: node.ID(),
		State:  state,
		Time:   time.Now().UnixMicro(),
	})
}

func (r *Run) collect(traces []Trace) {
	r.mu.Lock()
	r.traces = append(r.traces, traces...)
	r.mu.Unlock()
}

func (r *Run) finish(status RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusRunning {
		return ErrRunFinished
	}
	r.status = status
	r.end = time.Now().UnixMicro()
	return nil
}

// Runner compiles a board once and executes it many times. A runner is safe
// for concurrent use, but each instance backs one run at a time; Execute
// serializes runs internally.
type Runner struct {
	inst         *Instance
	logLevel     LogLevel
	maxNodeCalls uint64
	onState      StateCallback

	execMu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogLevel sets the minimum trace log level for runs.
func WithLogLevel(level LogLevel) Option {
	return func(r *Runner) { r.logLevel = level }
}

// WithMaxNodeCalls overrides the per-node invocation brake.
func WithMaxNodeCalls(n uint64) Option {
	return func(r *Runner) { r.maxNodeCalls = n }
}

// WithStateCallback streams node state transitions to the caller.
func WithStateCallback(cb StateCallback) Option {
	return func(r *Runner) { r.onState = cb }
}

// NewRunner compiles the board against the registry.
func NewRunner(b *board.Board, registry *Registry, opts ...Option) (*Runner, error) {
	inst, err := Compile(b, registry)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		inst:         inst,
		logLevel:     LevelInfo,
		maxNodeCalls: defaultMaxNodeCalls,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Instance returns the compiled instance.
func (r *Runner) Instance() *Instance { return r.inst }

// Payload selects and seeds the entry points of a run.
type Payload struct {
	// NodeID names a single start node. Empty means every node marked as a
	// start node runs, in an unspecified order relative to each other.
	NodeID string `json:"node_id,omitempty"`
	// Data seeds the start node's input pins by pin name.
	Data map[string]any `json:"data,omitempty"`
	// Variables overrides exposed, editable, non-secret board variables
	// for this run.
	Variables map[string]any `json:"variables,omitempty"`
}

// Execute runs the board from the payload's entry points and returns the
// finished run. The returned error joins every branch failure; the run
// itself is always returned with its traces.
func (r *Runner) Execute(ctx context.Context, payload Payload) (*Run, error) {
	r.execMu.Lock()
	defer r.execMu.Unlock()

	r.inst.Reset()
	run := &Run{
		id:           uuid.NewString(),
		inst:         r.inst,
		vars:         NewVariables(r.inst.Board()),
		logLevel:     r.logLevel,
		maxNodeCalls: r.maxNodeCalls,
		onState:      r.onState,
		status:       StatusRunning,
		start:        time.Now().UnixMicro(),
	}
	if rejected := run.vars.ApplyOverrides(payload.Variables); len(rejected) > 0 {
		return run, fmt.Errorf("variables not overridable: %v", rejected)
	}

	starts, err := r.startNodes(payload)
	if err != nil {
		return run, err
	}

	ctx, span := telemetry.Tracer.Start(ctx, "flow.run",
		trace.WithAttributes(
			attribute.String("flow.run.id", run.id),
			attribute.String("flow.board.id", r.inst.Board().ID),
		))
	defer span.End()
	telemetry.RunsStarted.Add(ctx, 1)
	log.Debugf("run %s started on board %s with %d entry points",
		run.id, r.inst.Board().ID, len(starts))

	var errs []error
	for _, node := range starts {
		ec := newContext(run, r.inst, node)
		r.seed(node, payload)
		if err := TriggerNode(ctx, ec); err != nil {
			errs = append(errs, err)
		}
		run.collect(ec.Traces())
	}

	err = errors.Join(errs...)
	switch {
	case ctx.Err() != nil:
		_ = run.finish(StatusStopped)
	case err != nil:
		span.RecordError(err)
		telemetry.RunsFailed.Add(ctx, 1)
		_ = run.finish(StatusFailed)
	default:
		_ = run.finish(StatusSuccess)
	}
	log.Debugf("run %s finished with status %s", run.id, run.Status())
	return run, err
}

// startNodes resolves the run's entry points from the payload.
func (r *Runner) startNodes(payload Payload) ([]*RuntimeNode, error) {
	if payload.NodeID != "" {
		node, ok := r.inst.Node(payload.NodeID)
		if !ok {
			return nil, fmt.Errorf("start node %s not found", payload.NodeID)
		}
		return []*RuntimeNode{node}, nil
	}
	var starts []*RuntimeNode
	for _, node := range r.inst.Board().SortedNodes() {
		if !node.Start {
			continue
		}
		rn, ok := r.inst.Node(node.ID)
		if !ok {
			continue
		}
		starts = append(starts, rn)
	}
	if len(starts) == 0 {
		return nil, errors.New("board has no start node")
	}
	return starts, nil
}

// seed copies payload data onto the start node's input pins by name.
func (r *Runner) seed(node *RuntimeNode, payload Payload) {
	for name, value := range payload.Data {
		if pin, ok := node.PinByName(name); ok && pin.Type == board.PinInput {
			pin.SetValue(value)
		}
	}
}
