// Package server exposes a store over the HTTP API the remote client speaks.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tordrt/schemagen/internal/db"
	"github.com/tordrt/schemagen/internal/generator"
	"github.com/tordrt/schemagen/internal/remote"
	"github.com/tordrt/schemagen/internal/schema"
	"github.com/tordrt/schemagen/internal/store"
)

const (
	maxBodyBytes      = 16 << 20
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// IntrospectFunc reads the schema of a live database
type IntrospectFunc func(ctx context.Context, url string, opts *db.Options) (*db.Result, error)

// Options configures a Server
type Options struct {
	Store *store.Store
	// Connections maps a live database id to its connection URL
	Connections map[string]string
	Logger      *zap.SugaredLogger
	// Introspect defaults to db.Introspect
	Introspect IntrospectFunc
	Now        func() time.Time
}

// Server serves one store. Requests are serialized on the store.
type Server struct {
	mu          sync.Mutex
	store       *store.Store
	connections map[string]string
	logger      *zap.SugaredLogger
	introspect  IntrospectFunc
	now         func() time.Time
	mux         *http.ServeMux
}

// New creates a server for opts.Store
func New(opts Options) *Server {
	s := &Server{
		store:       opts.Store,
		connections: opts.Connections,
		logger:      opts.Logger,
		introspect:  opts.Introspect,
		now:         opts.Now,
		mux:         http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.introspect == nil {
		s.introspect = db.Introspect
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mux.HandleFunc("GET /api/schema", s.handleSchema)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("POST /api/save-layout", s.handleSaveLayout)
	s.mux.HandleFunc("GET /api/live-db/{id}", s.handleLiveDB)
	s.mux.HandleFunc("GET /api/databases", s.handleDatabases)
	s.mux.HandleFunc("GET /api/generate/{target}", s.handleGenerate)
	s.mux.HandleFunc("POST /api/undo", s.handleHistory("undo", s.store.Undo))
	s.mux.HandleFunc("POST /api/redo", s.handleHistory("redo", s.store.Redo))
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Infow("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Infow("server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	buf, err := s.store.ExportProject()
	s.mu.Unlock()
	if err != nil {
		s.logger.Errorw("failed to export project", "error", err)
		writeAck(w, http.StatusInternalServerError, "failed to export project")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeAck(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	s.mu.Lock()
	res := s.store.ImportProject(raw)
	s.mu.Unlock()
	if !res.Success {
		writeAck(w, http.StatusBadRequest, res.Message)
		return
	}
	writeJSON(w, http.StatusOK, remote.Ack{Success: true})
}

func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	var layout remote.Layout
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&layout); err != nil {
		writeAck(w, http.StatusBadRequest, "invalid layout")
		return
	}
	positions := make(map[string]schema.Position, len(layout.Nodes))
	for _, n := range layout.Nodes {
		positions[n.ID] = n.Position
	}

	s.mu.Lock()
	moved := s.store.ApplyLayout(positions)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, remote.Ack{Success: true, Message: fmt.Sprintf("%d moved", moved)})
}

func (s *Server) handleLiveDB(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	url, ok := s.connections[id]
	if !ok {
		writeAck(w, http.StatusNotFound, fmt.Sprintf("unknown database %q", id))
		return
	}

	start := time.Now()
	res, err := s.introspect(r.Context(), url, nil)
	IntrospectDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind, _, _ := db.ParseURL(url)
		Introspections.WithLabelValues(string(kind), "error").Inc()
		s.logger.Warnw("introspection failed", "database", id, "error", err)
		writeAck(w, http.StatusBadGateway, "failed to introspect database")
		return
	}
	Introspections.WithLabelValues(string(res.Kind), "ok").Inc()
	s.logger.Debugw("introspected database", "database", id, "kind", res.Kind, "entities", len(res.Project.Collections))

	writeJSON(w, http.StatusOK, schema.Document{
		Version:    schema.DocumentVersion,
		ExportedAt: s.now().UTC().Format(time.RFC3339),
		Project:    *res.Project,
	})
}

func (s *Server) handleDatabases(w http.ResponseWriter, r *http.Request) {
	dbs := make([]schema.Database, 0, len(s.connections))
	for _, id := range slices.Sorted(maps.Keys(s.connections)) {
		dbs = append(dbs, schema.Database{ID: id, Name: id})
	}
	writeJSON(w, http.StatusOK, dbs)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	target, ok := generator.ParseTarget(r.PathValue("target"))
	if !ok {
		writeAck(w, http.StatusBadRequest, fmt.Sprintf("unknown target %q", r.PathValue("target")))
		return
	}
	var scope store.Scope
	switch ids := r.URL.Query()["entity"]; len(ids) {
	case 0:
	case 1:
		scope = store.ScopeEntity(ids[0])
	default:
		scope = store.ScopeEntities(ids...)
	}

	s.mu.Lock()
	out, err := s.store.Generate(target, scope)
	s.mu.Unlock()
	if err != nil {
		writeAck(w, http.StatusBadRequest, err.Error())
		return
	}
	Generations.WithLabelValues(string(target)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleHistory(op string, step func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		changed, err := step()
		s.mu.Unlock()
		if err != nil {
			s.logger.Errorw("history step failed", "op", op, "error", err)
			writeAck(w, http.StatusInternalServerError, op+" failed")
			return
		}
		if changed {
			HistoryOperations.WithLabelValues(op).Inc()
		}
		writeJSON(w, http.StatusOK, remote.Ack{Success: changed})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debugw("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAck(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, remote.Ack{Message: message})
}
