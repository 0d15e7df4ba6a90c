//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/flowgraph/storage"
)

func TestObjectStore(t *testing.T) {
	ctx := context.Background()
	store := NewObjectStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, "boards/b1.json", []byte(`{"id":"b1"}`)))
	data, err := store.Get(ctx, "boards/b1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b1"}`, string(data))

	url, err := store.Sign(ctx, "boards/b1.json", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "boards/b1.json")

	require.NoError(t, store.Delete(ctx, "boards/b1.json"))
	_, err = store.Get(ctx, "boards/b1.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Sign(ctx, "boards/b1.json", time.Minute)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	record := &storage.RunRecord{
		ID:        "run-1",
		BoardID:   "b1",
		Status:    "running",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, record))
	assert.Error(t, store.Create(ctx, record))

	record.Status = "success"
	require.NoError(t, store.Update(ctx, record))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "success", got.Status)

	_, err = store.Get(ctx, "run-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &storage.RunRecord{ID: "run-2"}), storage.ErrNotFound)

	older := &storage.RunRecord{
		ID:        "run-0",
		BoardID:   "b1",
		Status:    "failed",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, &storage.RunRecord{ID: "other", BoardID: "b2"}))

	records, err := store.Query(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "run-1", records[0].ID)
	assert.Equal(t, "run-0", records[1].ID)
}
