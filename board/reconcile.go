//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package board

import "fmt"

// PinDiff is the result of reconciling a node's pin set after its logic
// reshaped it (dynamic pin shapes). The board owner applies the diff between
// runs; the pin set never changes while a run is in flight.
type PinDiff struct {
	// Added lists pins present in the fresh declaration but not the old one.
	Added []*Pin
	// Removed lists pins present in the old declaration but not the fresh one.
	Removed []*Pin
	// Retyped lists pins whose data type or shape changed in place.
	Retyped []*Pin
}

// Empty reports whether the diff carries no changes.
func (d *PinDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Retyped) == 0
}

// DiffPins compares two declarations of the same node by pin name and
// direction. Pins are matched by (name, direction); a matched pin whose data
// type or shape differs is reported as retyped.
func DiffPins(old, fresh *Node) *PinDiff {
	type key struct {
		name string
		typ  PinType
	}
	oldPins := make(map[key]*Pin, len(old.Pins))
	for _, pin := range old.Pins {
		oldPins[key{pin.Name, pin.Type}] = pin
	}

	diff := &PinDiff{}
	seen := make(map[key]bool, len(fresh.Pins))
	for _, pin := range fresh.SortedPins() {
		k := key{pin.Name, pin.Type}
		seen[k] = true
		prev, ok := oldPins[k]
		if !ok {
			diff.Added = append(diff.Added, pin)
			continue
		}
		if prev.DataType != pin.DataType || prev.Shape != pin.Shape {
			diff.Retyped = append(diff.Retyped, pin)
		}
	}
	for _, pin := range old.SortedPins() {
		if !seen[key{pin.Name, pin.Type}] {
			diff.Removed = append(diff.Removed, pin)
		}
	}
	return diff
}

// ApplyDiff applies a reconciliation diff to the node identified by nodeID:
// removed pins are deleted together with their connections, added pins are
// attached with fresh indices, and retyped pins keep their connections but
// adopt the new type. The caller is the board owner; runs in flight keep the
// snapshot they compiled from.
func (b *Board) ApplyDiff(nodeID string, diff *PinDiff) error {
	node, ok := b.Nodes[nodeID]
	if !ok {
		return fmt.Errorf("apply diff: node %s not found", nodeID)
	}
	for _, removed := range diff.Removed {
		for pinID, pin := range node.Pins {
			if pin.Name == removed.Name && pin.Type == removed.Type {
				b.pruneConnections(pin)
				delete(node.Pins, pinID)
			}
		}
	}
	for _, added := range diff.Added {
		pin := added.Clone()
		pin.ConnectedTo = nil
		pin.DependsOn = nil
		pin.Index = node.nextPinIndex()
		node.Pins[pin.ID] = pin
	}
	for _, retyped := range diff.Retyped {
		for _, pin := range node.Pins {
			if pin.Name == retyped.Name && pin.Type == retyped.Type {
				pin.DataType = retyped.DataType
				pin.Shape = retyped.Shape
			}
		}
	}
	return nil
}

// pruneConnections removes every connection referencing the given pin.
func (b *Board) pruneConnections(pin *Pin) {
	for _, target := range pin.ConnectedTo {
		if other, ok := b.PinByID(target); ok {
			other.DependsOn = removeString(other.DependsOn, pin.ID)
		}
	}
	for _, source := range pin.DependsOn {
		if other, ok := b.PinByID(source); ok {
			other.ConnectedTo = removeString(other.ConnectedTo, pin.ID)
		}
	}
	pin.ConnectedTo = nil
	pin.DependsOn = nil
}
