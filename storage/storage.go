//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package storage defines the persistence capabilities the engine consumes:
// object storage for board payloads and artifacts, and a state store for run
// records. The engine treats both as opaque capability interfaces; concrete
// backends live in subpackages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a key or record does not exist.
var ErrNotFound = errors.New("storage: not found")

// ObjectStore is opaque get/put/sign object storage.
type ObjectStore interface {
	// Get reads an object.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes an object.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Sign returns a pre-signed GET URL valid for ttl.
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// RunRecord is the persisted outcome of one run.
type RunRecord struct {
	// ID is the run ID.
	ID string `json:"id"`
	// BoardID is the board the run executed.
	BoardID string `json:"board_id"`
	// Status is the terminal run status, or "running" while in flight.
	Status string `json:"status"`
	// Traces is the aggregated trace output in JSON form.
	Traces json.RawMessage `json:"traces,omitempty"`
	// CreatedAt and UpdatedAt bound the record's lifecycle.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore persists run records.
type StateStore interface {
	// Create inserts a new record.
	Create(ctx context.Context, record *RunRecord) error
	// Update replaces an existing record.
	Update(ctx context.Context, record *RunRecord) error
	// Get reads a record by run ID.
	Get(ctx context.Context, id string) (*RunRecord, error)
	// Query lists the records of one board, newest first.
	Query(ctx context.Context, boardID string) ([]*RunRecord, error)
}
