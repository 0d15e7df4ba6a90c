//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package board

import "encoding/json"

// PinType is the direction of a pin.
type PinType string

const (
	// PinInput marks a pin that receives values or activation.
	PinInput PinType = "input"
	// PinOutput marks a pin that produces values or activation.
	PinOutput PinType = "output"
)

// DataType is the declared value type of a pin or variable. Execution is the
// control-flow kind; all other types carry data. The set is closed and values
// are treated as opaque JSON-compatible values.
type DataType string

const (
	// DataTypeExecution marks a control-flow pin.
	DataTypeExecution DataType = "execution"
	// DataTypeString carries a string value.
	DataTypeString DataType = "string"
	// DataTypeInteger carries an integer value.
	DataTypeInteger DataType = "integer"
	// DataTypeFloat carries a floating-point value.
	DataTypeFloat DataType = "float"
	// DataTypeBoolean carries a boolean value.
	DataTypeBoolean DataType = "boolean"
	// DataTypeDate carries an RFC 3339 timestamp.
	DataTypeDate DataType = "date"
	// DataTypePath carries a storage path.
	DataTypePath DataType = "path"
	// DataTypeStruct carries a structured object.
	DataTypeStruct DataType = "struct"
	// DataTypeBytes carries raw bytes (base64 in JSON form).
	DataTypeBytes DataType = "bytes"
	// DataTypeGeneric carries any value; used by container nodes that adapt
	// to the connected type.
	DataTypeGeneric DataType = "generic"
)

// String returns the data type name.
func (d DataType) String() string { return string(d) }

// ValueShape describes the container shape of a pin's value.
type ValueShape string

const (
	// ShapeSingle is a single value.
	ShapeSingle ValueShape = "single"
	// ShapeArray is an ordered list of values.
	ShapeArray ValueShape = "array"
	// ShapeMap is a string-keyed map of values.
	ShapeMap ValueShape = "map"
)

// Pin is a typed, named slot on a node (or a relay slot on a layer). An
// output pin records the input pins it feeds in ConnectedTo; an input pin
// records its upstream sources in DependsOn. Both sides are kept in sync by
// Board.Connect.
type Pin struct {
	// ID is the unique identifier of the pin.
	ID string `json:"id"`
	// Name is the lookup name of the pin, unique per direction on a node
	// except for deliberately repeated exec pins (fan-out groups).
	Name string `json:"name"`
	// FriendlyName is the display name.
	FriendlyName string `json:"friendly_name,omitempty"`
	// Description is the description of the pin.
	Description string `json:"description,omitempty"`
	// Type is the pin direction.
	Type PinType `json:"type"`
	// DataType is the declared value type.
	DataType DataType `json:"data_type"`
	// Shape is the container shape of the value.
	Shape ValueShape `json:"shape"`
	// DefaultValue is the literal fallback used when an input pin has no
	// upstream connection.
	DefaultValue json.RawMessage `json:"default_value,omitempty"`
	// Index orders pins for deterministic propagation.
	Index uint16 `json:"index"`
	// ConnectedTo lists the IDs of downstream pins fed by this output.
	ConnectedTo []string `json:"connected_to,omitempty"`
	// DependsOn lists the IDs of upstream pins feeding this input.
	DependsOn []string `json:"depends_on,omitempty"`
}

// WithDefault sets the default value of the pin from a Go value and returns
// the pin for chaining. Invalid values are ignored; the pin keeps its
// previous default.
func (p *Pin) WithDefault(value any) *Pin {
	raw, err := json.Marshal(value)
	if err != nil {
		return p
	}
	p.DefaultValue = raw
	return p
}

// WithShape sets the container shape and returns the pin for chaining.
func (p *Pin) WithShape(shape ValueShape) *Pin {
	p.Shape = shape
	return p
}

// WithDescription sets the description and returns the pin for chaining.
func (p *Pin) WithDescription(desc string) *Pin {
	p.Description = desc
	return p
}

// IsExecution reports whether the pin is a control-flow pin.
func (p *Pin) IsExecution() bool { return p.DataType == DataTypeExecution }

// Clone returns a deep copy of the pin.
func (p *Pin) Clone() *Pin {
	clone := *p
	clone.ConnectedTo = append([]string(nil), p.ConnectedTo...)
	clone.DependsOn = append([]string(nil), p.DependsOn...)
	if p.DefaultValue != nil {
		clone.DefaultValue = append(json.RawMessage(nil), p.DefaultValue...)
	}
	return &clone
}
