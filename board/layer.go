//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package board

import "github.com/google/uuid"

// Layer is a nested sub-graph. Layers are purely organizational: their nodes
// share the board's identifier space, and a layer may own relay pins that
// forward connections across the layer boundary. Graph traversal follows
// through relay pins transparently.
type Layer struct {
	// ID is the unique identifier of the layer.
	ID string `json:"id"`
	// Name is the display name of the layer.
	Name string `json:"name"`
	// ParentID is the enclosing layer, if nested.
	ParentID string `json:"parent_id,omitempty"`
	// Pins maps relay pin IDs to their definitions. Relay pins have no
	// owning node.
	Pins map[string]*Pin `json:"pins,omitempty"`
}

// NewLayer creates an empty layer.
func NewLayer(name string) *Layer {
	return &Layer{
		ID:   uuid.NewString(),
		Name: name,
		Pins: make(map[string]*Pin),
	}
}

// AddRelayPin declares a relay pin on the layer boundary. The data type must
// match both sides of the relayed connection.
func (l *Layer) AddRelayPin(name string, pinType PinType, dataType DataType) *Pin {
	pin := &Pin{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     pinType,
		DataType: dataType,
		Shape:    ShapeSingle,
	}
	l.Pins[pin.ID] = pin
	return pin
}
