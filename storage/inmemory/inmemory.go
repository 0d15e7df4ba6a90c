//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides map-backed storage backends for tests and
// single-process deployments.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flowgraph/flowgraph/storage"
)

// ObjectStore is a map-backed object store.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewObjectStore creates an empty object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

// Get reads an object.
func (s *ObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, storage.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put writes an object.
func (s *ObjectStore) Put(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	s.mu.Lock()
	s.objects[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes an object.
func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Sign returns a synthetic URL; in-memory objects have no real transport.
func (s *ObjectStore) Sign(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %q: %w", key, storage.ErrNotFound)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s?expires=%d", key, expires), nil
}

// StateStore is a map-backed run record store.
type StateStore struct {
	mu      sync.RWMutex
	records map[string]*storage.RunRecord
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{records: make(map[string]*storage.RunRecord)}
}

// Create inserts a new record.
func (s *StateStore) Create(_ context.Context, record *storage.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("run record %q already exists", record.ID)
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

// Update replaces an existing record.
func (s *StateStore) Update(_ context.Context, record *storage.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return fmt.Errorf("run record %q: %w", record.ID, storage.ErrNotFound)
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

// Get reads a record by run ID.
func (s *StateStore) Get(_ context.Context, id string) (*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("run record %q: %w", id, storage.ErrNotFound)
	}
	clone := *record
	return &clone, nil
}

// Query lists the records of one board, newest first.
func (s *StateStore) Query(_ context.Context, boardID string) ([]*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*storage.RunRecord
	for _, record := range s.records {
		if record.BoardID != boardID {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
