//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the shared OpenTelemetry instruments for the
// flowgraph engine. Defaults are no-ops; hosts that want real export call
// the Init functions with their providers.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Instrument identity shared by every span and metric the engine emits.
const (
	ServiceName    = "flowgraph"
	ServiceVersion = "v0.1.0"
	InstrumentName = "flowgraph.engine"
)

var (
	// Tracer emits one span per node invocation and per run.
	Tracer trace.Tracer = otel.Tracer(InstrumentName)

	// MeterProvider backs the engine's counters.
	MeterProvider metric.MeterProvider = noop.NewMeterProvider()

	// NodesExecuted counts node invocations across all runs.
	NodesExecuted metric.Int64Counter = noop.Int64Counter{}
	// RunsStarted counts run starts.
	RunsStarted metric.Int64Counter = noop.Int64Counter{}
	// RunsFailed counts runs that finished in a failed state.
	RunsFailed metric.Int64Counter = noop.Int64Counter{}
)

// InitTracerProvider installs the tracer provider used for node spans.
func InitTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(InstrumentName)
}

// InitMeterProvider installs the meter provider and rebuilds the engine's
// counters against it.
func InitMeterProvider(mp metric.MeterProvider) error {
	MeterProvider = mp
	meter := mp.Meter(InstrumentName)

	var err error
	if NodesExecuted, err = meter.Int64Counter(
		"flowgraph.nodes.executed",
		metric.WithDescription("Total number of node invocations"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create nodes executed counter: %w", err)
	}
	if RunsStarted, err = meter.Int64Counter(
		"flowgraph.runs.started",
		metric.WithDescription("Total number of runs started"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create runs started counter: %w", err)
	}
	if RunsFailed, err = meter.Int64Counter(
		"flowgraph.runs.failed",
		metric.WithDescription("Total number of runs that failed"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create runs failed counter: %w", err)
	}
	return nil
}
