//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package board defines the graph model: boards, nodes, pins, variables and
// layers. A board is pure data; it carries no behavior and is treated as
// read-only for the duration of a run.
package board

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Stage describes the deployment stage a board runs in.
type Stage string

const (
	// StageDev marks a board under active development.
	StageDev Stage = "dev"
	// StageQA marks a board under test.
	StageQA Stage = "qa"
	// StageProduction marks a released board.
	StageProduction Stage = "production"
)

// Board is the persisted graph of nodes and pin connections.
// Boards are loaded once and never mutated during execution; per-run state
// lives in the flow package's runtime types.
type Board struct {
	// ID is the unique identifier of the board.
	ID string `json:"id"`
	// Name is the human-readable name of the board.
	Name string `json:"name"`
	// Description is the description of the board.
	Description string `json:"description"`
	// Nodes maps node IDs to node definitions.
	Nodes map[string]*Node `json:"nodes"`
	// Variables maps variable IDs to run-level variable definitions.
	Variables map[string]*Variable `json:"variables"`
	// Layers maps layer IDs to nested sub-graphs. Layers share the board's
	// identifier space; connections may resolve through layer relay pins.
	Layers map[string]*Layer `json:"layers,omitempty"`
	// Version is the (major, minor, patch) version of the board.
	Version [3]uint32 `json:"version"`
	// Stage is the deployment stage of the board.
	Stage Stage `json:"stage"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the last modification timestamp.
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a new empty board.
func New(id, name string) *Board {
	now := time.Now()
	return &Board{
		ID:        id,
		Name:      name,
		Nodes:     make(map[string]*Node),
		Variables: make(map[string]*Variable),
		Layers:    make(map[string]*Layer),
		Version:   [3]uint32{0, 0, 1},
		Stage:     StageDev,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddNode adds a node definition to the board.
func (b *Board) AddNode(node *Node) *Node {
	b.Nodes[node.ID] = node
	b.UpdatedAt = time.Now()
	return node
}

// AddVariable adds a run-level variable definition to the board.
func (b *Board) AddVariable(v *Variable) *Variable {
	b.Variables[v.ID] = v
	b.UpdatedAt = time.Now()
	return v
}

// Node returns the node with the given ID.
func (b *Board) Node(id string) (*Node, bool) {
	n, ok := b.Nodes[id]
	return n, ok
}

// SortedNodes returns the board's nodes ordered by ID for deterministic
// iteration.
func (b *Board) SortedNodes() []*Node {
	nodes := make([]*Node, 0, len(b.Nodes))
	for _, node := range b.Nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// PinByID resolves a pin anywhere on the board: node pins first, then layer
// relay pins.
func (b *Board) PinByID(pinID string) (*Pin, bool) {
	for _, node := range b.Nodes {
		if pin, ok := node.Pins[pinID]; ok {
			return pin, true
		}
	}
	for _, layer := range b.Layers {
		if pin, ok := layer.Pins[pinID]; ok {
			return pin, true
		}
	}
	return nil, false
}

// NodeByPin returns the node owning the given pin ID, or false for relay
// pins and unknown IDs.
func (b *Board) NodeByPin(pinID string) (*Node, bool) {
	for _, node := range b.Nodes {
		if _, ok := node.Pins[pinID]; ok {
			return node, true
		}
	}
	return nil, false
}

// Connect wires an output pin to an input pin, recording the connection on
// both ends. It validates direction and kind compatibility.
func (b *Board) Connect(fromPinID, toPinID string) error {
	from, ok := b.PinByID(fromPinID)
	if !ok {
		return fmt.Errorf("connect: source pin %s not found", fromPinID)
	}
	to, ok := b.PinByID(toPinID)
	if !ok {
		return fmt.Errorf("connect: target pin %s not found", toPinID)
	}
	// Relay pins are direction-agnostic: they accept a connection on either
	// side and traversal follows through them.
	if from.Type != PinOutput && !b.isRelayPin(fromPinID) {
		return fmt.Errorf("connect: pin %s is not an output pin", fromPinID)
	}
	if to.Type != PinInput && !b.isRelayPin(toPinID) {
		return fmt.Errorf("connect: pin %s is not an input pin", toPinID)
	}
	if (from.DataType == DataTypeExecution) != (to.DataType == DataTypeExecution) {
		return fmt.Errorf("connect: cannot wire %s pin %s to %s pin %s",
			from.DataType, fromPinID, to.DataType, toPinID)
	}
	// A data input may be fed by at most one upstream output.
	if to.DataType != DataTypeExecution && len(to.DependsOn) > 0 {
		return fmt.Errorf("connect: data pin %s already has an upstream connection", toPinID)
	}
	from.ConnectedTo = appendUnique(from.ConnectedTo, toPinID)
	to.DependsOn = appendUnique(to.DependsOn, fromPinID)
	b.UpdatedAt = time.Now()
	return nil
}

// isRelayPin reports whether the pin belongs to a layer rather than a node.
func (b *Board) isRelayPin(pinID string) bool {
	for _, layer := range b.Layers {
		if _, ok := layer.Pins[pinID]; ok {
			return true
		}
	}
	return false
}

// Disconnect removes a connection between two pins if present.
func (b *Board) Disconnect(fromPinID, toPinID string) {
	if from, ok := b.PinByID(fromPinID); ok {
		from.ConnectedTo = removeString(from.ConnectedTo, toPinID)
	}
	if to, ok := b.PinByID(toPinID); ok {
		to.DependsOn = removeString(to.DependsOn, fromPinID)
	}
	b.UpdatedAt = time.Now()
}

// Validate checks structural consistency: every referenced pin exists, every
// connection is direction- and kind-compatible, and data inputs have at most
// one upstream source.
func (b *Board) Validate() error {
	for nodeID, node := range b.Nodes {
		if node.ID != nodeID {
			return fmt.Errorf("node key %s does not match node ID %s", nodeID, node.ID)
		}
		for pinID, pin := range node.Pins {
			if pin.ID != pinID {
				return fmt.Errorf("pin key %s does not match pin ID %s on node %s", pinID, pin.ID, nodeID)
			}
			if err := b.validatePin(pin); err != nil {
				return fmt.Errorf("node %s: %w", nodeID, err)
			}
		}
	}
	for layerID, layer := range b.Layers {
		for _, pin := range layer.Pins {
			if err := b.validatePin(pin); err != nil {
				return fmt.Errorf("layer %s: %w", layerID, err)
			}
		}
	}
	return nil
}

func (b *Board) validatePin(pin *Pin) error {
	for _, target := range pin.ConnectedTo {
		other, ok := b.PinByID(target)
		if !ok {
			return fmt.Errorf("pin %s connects to unknown pin %s", pin.ID, target)
		}
		if (pin.DataType == DataTypeExecution) != (other.DataType == DataTypeExecution) {
			return fmt.Errorf("pin %s (%s) connects to incompatible pin %s (%s)",
				pin.ID, pin.DataType, other.ID, other.DataType)
		}
	}
	if pin.Type == PinInput && pin.DataType != DataTypeExecution && len(pin.DependsOn) > 1 {
		return fmt.Errorf("data input pin %s has %d upstream sources, want at most 1",
			pin.ID, len(pin.DependsOn))
	}
	return nil
}

// MarshalJSON is the default; Load decodes a board from its JSON form and
// validates it.
func Load(data []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}
	return &b, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
