//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package board

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Variable is a run-level named value shared across all nodes of one run.
// The definition holds only the default; the live value belongs to the run.
type Variable struct {
	// ID is the unique identifier of the variable.
	ID string `json:"id"`
	// Name is the display name of the variable.
	Name string `json:"name"`
	// Description is the description of the variable.
	Description string `json:"description,omitempty"`
	// DataType is the declared value type.
	DataType DataType `json:"data_type"`
	// Shape is the container shape of the value.
	Shape ValueShape `json:"shape"`
	// DefaultValue is the initial value for each run.
	DefaultValue json.RawMessage `json:"default_value,omitempty"`
	// Exposed allows hosts to override the value per run via the payload.
	Exposed bool `json:"exposed"`
	// Secret marks values that must not be overridden by untrusted callers
	// and must be redacted from traces.
	Secret bool `json:"secret"`
	// Editable allows the board editor to change the default.
	Editable bool `json:"editable"`
}

// NewVariable creates a variable definition.
func NewVariable(name string, dataType DataType, shape ValueShape) *Variable {
	return &Variable{
		ID:       uuid.NewString(),
		Name:     name,
		DataType: dataType,
		Shape:    shape,
		Editable: true,
	}
}

// WithDefault sets the default value from a Go value and returns the
// variable for chaining.
func (v *Variable) WithDefault(value any) *Variable {
	raw, err := json.Marshal(value)
	if err != nil {
		return v
	}
	v.DefaultValue = raw
	return v
}

// Default decodes the default value, or nil if none is set.
func (v *Variable) Default() any {
	if len(v.DefaultValue) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(v.DefaultValue, &value); err != nil {
		return nil
	}
	return value
}
