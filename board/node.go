//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package board

import (
	"sort"

	"github.com/google/uuid"
)

// Scores carries informational quality scores for a node. Purely advisory;
// the engine never reads them.
type Scores struct {
	// Privacy rates how much user data the node touches (0-10).
	Privacy uint8 `json:"privacy"`
	// Security rates the node's attack surface (0-10).
	Security uint8 `json:"security"`
	// Performance rates the node's expected cost (0-10).
	Performance uint8 `json:"performance"`
	// Governance rates auditability (0-10).
	Governance uint8 `json:"governance"`
}

// Node is a named unit of behavior on a board. The definition is immutable
// during execution; only the runtime pin state in the flow package varies
// per invocation.
type Node struct {
	// ID is the unique identifier of the node within its board.
	ID string `json:"id"`
	// Name is the registry name of the node's logic (e.g. "control_for_each").
	Name string `json:"name"`
	// FriendlyName is the display name.
	FriendlyName string `json:"friendly_name,omitempty"`
	// Description is the description of the node.
	Description string `json:"description,omitempty"`
	// Category groups nodes in the catalog (e.g. "Control").
	Category string `json:"category,omitempty"`
	// Pins maps pin IDs to pin definitions.
	Pins map[string]*Pin `json:"pins"`
	// Scores are optional quality scores.
	Scores *Scores `json:"scores,omitempty"`
	// LongRunning marks nodes expected to take a while. Informational, for
	// host UIs; the engine does not treat these nodes differently.
	LongRunning bool `json:"long_running,omitempty"`
	// Start marks an entry-point node a host may trigger directly.
	Start bool `json:"start,omitempty"`
	// LayerID is the owning layer, if the node is nested.
	LayerID string `json:"layer_id,omitempty"`

	pinIndex uint16
}

// NewNode creates a node definition with the given registry name, display
// name, description and category.
func NewNode(name, friendlyName, description, category string) *Node {
	return &Node{
		ID:           uuid.NewString(),
		Name:         name,
		FriendlyName: friendlyName,
		Description:  description,
		Category:     category,
		Pins:         make(map[string]*Pin),
	}
}

// AddInputPin declares an input pin and returns it for chaining.
func (n *Node) AddInputPin(name, friendlyName, description string, dataType DataType) *Pin {
	return n.addPin(name, friendlyName, description, PinInput, dataType)
}

// AddOutputPin declares an output pin and returns it for chaining.
func (n *Node) AddOutputPin(name, friendlyName, description string, dataType DataType) *Pin {
	return n.addPin(name, friendlyName, description, PinOutput, dataType)
}

func (n *Node) addPin(name, friendlyName, description string, pinType PinType, dataType DataType) *Pin {
	pin := &Pin{
		ID:           uuid.NewString(),
		Name:         name,
		FriendlyName: friendlyName,
		Description:  description,
		Type:         pinType,
		DataType:     dataType,
		Shape:        ShapeSingle,
		Index:        n.nextPinIndex(),
	}
	n.Pins[pin.ID] = pin
	return pin
}

// nextPinIndex allocates the next pin index. JSON decoding does not restore
// the internal counter, so allocation also scans the existing pins; a fresh
// pin always sorts after every pin already declared.
func (n *Node) nextPinIndex() uint16 {
	next := n.pinIndex
	for _, pin := range n.Pins {
		if pin.Index >= next {
			next = pin.Index + 1
		}
	}
	n.pinIndex = next + 1
	return next
}

// RemovePin deletes a pin declaration. Connections referencing it become
// dangling until the board owner prunes them (see Board.PruneConnections).
func (n *Node) RemovePin(pinID string) {
	delete(n.Pins, pinID)
}

// PinByName returns the first pin with the given name, preferring lower
// indices. Repeated names (fan-out groups) are reachable via PinsByName.
func (n *Node) PinByName(name string) (*Pin, bool) {
	pins := n.PinsByName(name)
	if len(pins) == 0 {
		return nil, false
	}
	return pins[0], true
}

// PinsByName returns every pin with the given name in index order.
func (n *Node) PinsByName(name string) []*Pin {
	var pins []*Pin
	for _, pin := range n.Pins {
		if pin.Name == name {
			pins = append(pins, pin)
		}
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Index < pins[j].Index })
	return pins
}

// SortedPins returns all pins in declaration (index) order. Propagation
// order is defined over this ordering.
func (n *Node) SortedPins() []*Pin {
	pins := make([]*Pin, 0, len(n.Pins))
	for _, pin := range n.Pins {
		pins = append(pins, pin)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Index < pins[j].Index })
	return pins
}

// Clone returns a deep copy of the node definition.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Pins = make(map[string]*Pin, len(n.Pins))
	for id, pin := range n.Pins {
		clone.Pins[id] = pin.Clone()
	}
	if n.Scores != nil {
		scores := *n.Scores
		clone.Scores = &scores
	}
	return &clone
}
