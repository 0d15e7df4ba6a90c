//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"encoding/json"
	"sync"

	"github.com/flowgraph/flowgraph/board"
)

// RuntimePin is the live counterpart of a board.Pin for one run.
//
// The run-time graph is immutable after compilation: metadata and the
// connection lists never change, so they are read without synchronization.
// Only the value cell mutates during execution and it is the only guarded
// field. For execution pins the value is the boolean activation state.
type RuntimePin struct {
	// ID is the board pin ID.
	ID string
	// Name is the lookup name.
	Name string
	// Type is the pin direction.
	Type board.PinType
	// DataType is the declared value type.
	DataType board.DataType
	// Index orders pins for deterministic propagation.
	Index uint16
	// Relay marks a layer relay pin with no owning node.
	Relay bool

	node       *RuntimeNode
	connected  []*RuntimePin
	dependsOn  []*RuntimePin
	defaultVal any
	hasDefault bool

	mu       sync.RWMutex
	value    any
	hasValue bool
}

func newRuntimePin(def *board.Pin, relay bool) *RuntimePin {
	p := &RuntimePin{
		ID:       def.ID,
		Name:     def.Name,
		Type:     def.Type,
		DataType: def.DataType,
		Index:    def.Index,
		Relay:    relay,
	}
	if len(def.DefaultValue) > 0 {
		var v any
		if err := json.Unmarshal(def.DefaultValue, &v); err == nil {
			p.defaultVal = v
			p.hasDefault = true
		}
	}
	return p
}

// Node returns the owning node, or nil for relay pins.
func (p *RuntimePin) Node() *RuntimeNode { return p.node }

// ConnectedTo returns the downstream pins fed by this output.
func (p *RuntimePin) ConnectedTo() []*RuntimePin { return p.connected }

// DependsOn returns the upstream pins feeding this input.
func (p *RuntimePin) DependsOn() []*RuntimePin { return p.dependsOn }

// HasDefault reports whether the pin declares a literal default.
func (p *RuntimePin) HasDefault() bool { return p.hasDefault }

// Default returns the literal default value, if any.
func (p *RuntimePin) Default() (any, bool) { return p.defaultVal, p.hasDefault }

// SetValue stores a value on the pin for this run.
func (p *RuntimePin) SetValue(value any) {
	p.mu.Lock()
	p.value = value
	p.hasValue = true
	p.mu.Unlock()
}

// Value returns the stored value and whether one has been set.
func (p *RuntimePin) Value() (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.hasValue
}

// Reset clears the value cell for re-execution.
func (p *RuntimePin) Reset() {
	p.mu.Lock()
	p.value = nil
	p.hasValue = false
	p.mu.Unlock()
}

// Active reports the activation state of an execution pin. Unset pins are
// inactive.
func (p *RuntimePin) Active() bool {
	v, ok := p.Value()
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// ConnectedNodes resolves the downstream nodes reachable from this output
// pin, following through relay pins, deduplicated, in connection order.
func (p *RuntimePin) ConnectedNodes() []*RuntimeNode {
	var nodes []*RuntimeNode
	seen := make(map[string]bool)
	visited := make(map[*RuntimePin]bool)
	var walk func(pins []*RuntimePin)
	walk = func(pins []*RuntimePin) {
		for _, pin := range pins {
			if visited[pin] {
				continue
			}
			visited[pin] = true
			if pin.node != nil {
				if !seen[pin.node.ID()] {
					seen[pin.node.ID()] = true
					nodes = append(nodes, pin.node)
				}
				continue
			}
			// Relay pin; keep walking.
			walk(pin.connected)
		}
	}
	walk(p.connected)
	return nodes
}

// upstreamSources resolves the data-producing pins feeding this input,
// following through relay pins.
func (p *RuntimePin) upstreamSources() []*RuntimePin {
	var sources []*RuntimePin
	visited := make(map[*RuntimePin]bool)
	var walk func(pins []*RuntimePin)
	walk = func(pins []*RuntimePin) {
		for _, pin := range pins {
			if visited[pin] {
				continue
			}
			visited[pin] = true
			if pin.node != nil {
				sources = append(sources, pin)
				continue
			}
			walk(pin.dependsOn)
		}
	}
	walk(p.dependsOn)
	return sources
}
