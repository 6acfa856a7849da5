//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the graph engine over HTTP: spec validation and
// compilation, run execution and a live event stream per run.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/agentstudio/studio-go/event"
	"github.com/agentstudio/studio-go/graph"
	"github.com/agentstudio/studio-go/log"
)

const defaultAddr = ":8080"

// Server is the studio HTTP API.
type Server struct {
	addr    string
	manager *Manager
	router  *mux.Router
	handler http.Handler
	httpSrv *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// New creates a server around a run manager.
func New(manager *Manager, opts ...Option) *Server {
	s := &Server{
		addr:    defaultAddr,
		manager: manager,
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.registerRoutes()
	s.handler = c.Handler(s.router)
	return s
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("studio server listening on %s", s.addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/specs/validate", s.handleValidate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/specs/compile", s.handleCompile).Methods(http.MethodPost)
	s.router.HandleFunc("/api/runs", s.handleStartRun).Methods(http.MethodPost)
	s.router.HandleFunc("/api/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	s.router.HandleFunc("/api/runs/{id}/events", s.handleRunEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/runs/{id}/cancel", s.handleCancelRun).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var envelope graph.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issues := graph.Validate(&envelope.Graph)
	if issues == nil {
		issues = []graph.Issue{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var envelope graph.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, graph.Compile(&envelope.Graph))
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, err := s.manager.StartRun(req)
	if err != nil {
		var specErr *SpecInvalidError
		if errors.As(err, &specErr) {
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "spec_invalid",
				"issues": specErr.Issues,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, run.Snapshot())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, run.Snapshot())
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if err := s.manager.Cancel(runID); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "status": "cancelling"})
}

// handleRunEvents streams a run's events as server-sent events: recorded
// history first, then live events until the run finishes or the client
// goes away.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	run, err := s.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before replaying so no live event can fall in the gap;
	// sequence numbers de-duplicate the overlap.
	live := s.manager.Bus().Subscribe(run.ID)
	defer s.manager.Bus().Unsubscribe(run.ID, live)

	var lastSeq int64
	for _, evt := range run.Events() {
		if !writeSSE(w, flusher, evt) {
			return
		}
		lastSeq = evt.Seq
	}

	for {
		select {
		case evt, open := <-live:
			if !open {
				return
			}
			if evt.Seq <= lastSeq {
				continue
			}
			if !writeSSE(w, flusher, evt) {
				return
			}
			lastSeq = evt.Seq
		case <-run.Done():
			// Flush whatever is still buffered, then finish.
			for {
				select {
				case evt, open := <-live:
					if !open {
						return
					}
					if evt.Seq > lastSeq {
						if !writeSSE(w, flusher, evt) {
							return
						}
						lastSeq = evt.Seq
					}
				default:
					return
				}
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, evt *event.Event) bool {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Errorf("failed to encode event %s: %v", evt.ID, err)
		return true
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}
