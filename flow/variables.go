//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"fmt"
	"sync"

	"github.com/flowgraph/flowgraph/board"
)

// Variables is a run's mutable variable store, seeded from the board's
// variable declarations. Reads and writes are safe from concurrent branches.
type Variables struct {
	mu     sync.RWMutex
	defs   map[string]*board.Variable
	values map[string]any
}

// NewVariables seeds a store from the board's declarations and their
// literal defaults.
func NewVariables(b *board.Board) *Variables {
	v := &Variables{
		defs:   make(map[string]*board.Variable, len(b.Variables)),
		values: make(map[string]any, len(b.Variables)),
	}
	for _, def := range b.Variables {
		v.defs[def.Name] = def
		if len(def.DefaultValue) > 0 {
			v.values[def.Name] = def.Default()
		}
	}
	return v
}

// Get reads a variable by name.
func (v *Variables) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.values[name]
	return value, ok
}

// Set writes a declared variable. Writes to undeclared names fail so typos
// in variable nodes surface instead of silently creating state.
func (v *Variables) Set(name string, value any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.defs[name]; !ok {
		return fmt.Errorf("variable %q is not declared on the board", name)
	}
	v.values[name] = value
	return nil
}

// Definition returns the board declaration for a variable.
func (v *Variables) Definition(name string) (*board.Variable, bool) {
	def, ok := v.defs[name]
	return def, ok
}

// ApplyOverrides installs caller-supplied values for the variables that
// permit it: exposed, editable and not secret. Anything else is skipped and
// reported back so callers can reject bad payloads.
func (v *Variables) ApplyOverrides(overrides map[string]any) []string {
	var rejected []string
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, value := range overrides {
		def, ok := v.defs[name]
		if !ok || !def.Exposed || !def.Editable || def.Secret {
			rejected = append(rejected, name)
			continue
		}
		v.values[name] = value
	}
	return rejected
}

// Snapshot returns a copy of the current values with secrets redacted.
func (v *Variables) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.values))
	for name, value := range v.values {
		if def, ok := v.defs[name]; ok && def.Secret {
			continue
		}
		out[name] = value
	}
	return out
}
