//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the host trigger surface over HTTP: board
// registration, run triggering and run record retrieval.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/flowgraph/flowgraph/board"
	"github.com/flowgraph/flowgraph/flow"
	"github.com/flowgraph/flowgraph/log"
	"github.com/flowgraph/flowgraph/nodes"
	"github.com/flowgraph/flowgraph/storage"
	"github.com/flowgraph/flowgraph/storage/inmemory"
)

// Server hosts boards and triggers runs over HTTP.
type Server struct {
	router   *mux.Router
	registry *flow.Registry

	mu      sync.RWMutex
	boards  map[string]*board.Board
	runners map[string]*flow.Runner

	stateStore  storage.StateStore
	objectStore storage.ObjectStore
	runnerOpts  []flow.Option
}

// Option configures the Server instance.
type Option func(*Server)

// WithRegistry replaces the default node catalog registry.
func WithRegistry(registry *flow.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithStateStore provides a custom run record backend. If omitted, an
// in-memory implementation is used.
func WithStateStore(store storage.StateStore) Option {
	return func(s *Server) {
		if store != nil {
			s.stateStore = store
		}
	}
}

// WithObjectStore provides an object storage backend for registered board
// documents. If omitted, an in-memory implementation is used.
func WithObjectStore(store storage.ObjectStore) Option {
	return func(s *Server) {
		if store != nil {
			s.objectStore = store
		}
	}
}

// WithRunnerOptions appends flow.Option values applied when the server
// lazily constructs a Runner for a board.
func WithRunnerOptions(opts ...flow.Option) Option {
	return func(s *Server) { s.runnerOpts = append(s.runnerOpts, opts...) }
}

// New creates the HTTP server. The behaviour can be tweaked via functional
// options.
func New(opts ...Option) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		registry:    nodes.DefaultRegistry(),
		boards:      make(map[string]*board.Board),
		runners:     make(map[string]*flow.Runner),
		stateStore:  inmemory.NewStateStore(),
		objectStore: inmemory.NewObjectStore(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/v1/catalog", s.handleCatalog).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/boards", s.handleRegisterBoard).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/boards", s.handleListBoards).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/boards/{boardId}", s.handleGetBoard).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/boards/{boardId}/runs", s.handleTriggerRun).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/boards/{boardId}/runs", s.handleListRuns).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/runs/{runId}", s.handleGetRun).Methods(http.MethodGet)
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{"nodes": s.registry.Names()})
}

func (s *Server) handleRegisterBoard(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := board.Load(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := b.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.boards[b.ID] = b
	delete(s.runners, b.ID)
	s.mu.Unlock()

	if err := s.objectStore.Put(r.Context(), boardKey(b.ID), data); err != nil {
		log.Warnf("failed to persist board %s: %v", b.ID, err)
	}
	log.Infof("registered board %s [%s] with %d nodes", b.ID, b.Name, len(b.Nodes))
	s.writeJSON(w, map[string]any{"id": b.ID})
}

func (s *Server) handleListBoards(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.boards))
	for id := range s.boards {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	s.writeJSON(w, map[string]any{"boards": ids})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	s.mu.RLock()
	b, ok := s.boards[boardID]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, b)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	var payload flow.Payload
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	runner, err := s.runner(boardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	run, runErr := runner.Execute(r.Context(), payload)
	record := &storage.RunRecord{
		ID:        run.ID(),
		BoardID:   boardID,
		Status:    string(run.Status()),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if traces, err := json.Marshal(run.Traces()); err == nil {
		record.Traces = traces
	}
	if err := s.stateStore.Create(r.Context(), record); err != nil {
		log.Warnf("failed to persist run %s: %v", run.ID(), err)
	}

	response := map[string]any{
		"run_id": run.ID(),
		"status": run.Status(),
		"traces": run.Traces(),
	}
	if runErr != nil {
		response["error"] = runErr.Error()
	}
	s.writeJSON(w, response)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	records, err := s.stateStore.Query(r.Context(), boardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"runs": records})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	record, err := s.stateStore.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, record)
}

// runner returns the cached runner for a board, compiling on first use.
func (s *Server) runner(boardID string) (*flow.Runner, error) {
	s.mu.RLock()
	runner, ok := s.runners[boardID]
	s.mu.RUnlock()
	if ok {
		return runner, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if runner, ok := s.runners[boardID]; ok {
		return runner, nil
	}
	b, ok := s.boards[boardID]
	if !ok {
		return nil, errors.New("board not found")
	}
	runner, err := flow.NewRunner(b, s.registry, s.runnerOpts...)
	if err != nil {
		return nil, err
	}
	s.runners[boardID] = runner
	return runner, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func boardKey(id string) string { return "boards/" + id + ".json" }
