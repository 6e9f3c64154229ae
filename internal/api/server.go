package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/Kerhoff/todoapi/internal/metrics"
	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/service"
)

// TodoService is the part of the service layer the HTTP API calls.
type TodoService interface {
	CreateTodo(ctx context.Context, in models.CreateTodoInput) (*models.Todo, error)
	ListTodos(ctx context.Context) ([]*models.Todo, error)
	UpdateTodo(ctx context.Context, in models.UpdateTodoInput) (*models.Todo, error)
	ToggleTodo(ctx context.Context, in models.ToggleTodoInput) (*models.Todo, error)
	DeleteTodo(ctx context.Context, in models.DeleteTodoInput) (*models.DeleteResult, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Ping(ctx context.Context) error
}

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Server provides the RPC and REST APIs plus health probes.
type Server struct {
	svc        TodoService
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	mux        *http.ServeMux
	procedures map[string]procedure
	draining   *atomic.Bool
}

// NewServer creates a Server, registers all routes, and returns it. m may be
// nil.
func NewServer(svc TodoService, logger *logrus.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		svc:      svc,
		logger:   logger,
		metrics:  m,
		mux:      http.NewServeMux(),
		draining: atomic.NewBool(false),
	}
	s.procedures = s.rpcProcedures()
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.instrument(s.mux))
}

// Drain makes /readyz fail so load balancers stop sending traffic before
// the listener closes.
func (s *Server) Drain() {
	s.draining.Store(true)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// RPC
	s.mux.HandleFunc("POST /rpc/{procedure}", s.handleRPC)
	s.mux.HandleFunc("GET /rpc/{procedure}", s.handleRPC)

	// REST – Todos
	s.mux.HandleFunc("GET /api/todos", s.handleGetTodos)
	s.mux.HandleFunc("POST /api/todos", s.handleCreateTodo)
	s.mux.HandleFunc("PATCH /api/todos/{id}", s.handleUpdateTodo)
	s.mux.HandleFunc("PUT /api/todos/{id}/toggle", s.handleToggleTodo)
	s.mux.HandleFunc("DELETE /api/todos/{id}", s.handleDeleteTodo)
	s.mux.HandleFunc("GET /api/stats", s.handleGetStats)

	// Probes
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			var err error
			if id, err = gonanoid.New(); err != nil {
				s.logger.WithError(err).Warn("failed to generate request id")
			}
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		// r.Pattern is filled in by the mux once it has matched.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, m.Code, m.Duration)
		}
		s.logger.WithFields(logrus.Fields{
			"request_id": RequestID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     m.Code,
			"duration":   m.Duration,
			"bytes":      m.Written,
		}).Debug("handled request")
	})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// badRequestError marks failures to read or parse a request.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// decodeJSON reads the request body into dst. An empty body is accepted when
// allowEmpty is set, leaving dst untouched. The body must hold exactly one
// JSON value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if allowEmpty {
			return nil
		}
		return &badRequestError{msg: "request body is empty"}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return &badRequestError{msg: "request body is empty"}
		}
		return &badRequestError{msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &badRequestError{msg: "invalid JSON: unexpected data after the request object"}
	}
	return nil
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, &badRequestError{msg: "missing id in path"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &badRequestError{msg: "invalid todo id"}
	}
	return id, nil
}

// Error codes shared by the RPC envelope and the Go client.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeMethodNotSupported  = "METHOD_NOT_SUPPORTED"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// classify maps an error to its HTTP status, code and message. Store faults
// are passed through untranslated as internal errors.
func (s *Server) classify(r *http.Request, err error) (int, string, string) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, CodeBadRequest, bad.msg
	case service.IsValidation(err):
		return http.StatusBadRequest, CodeBadRequest, err.Error()
	case repository.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound, err.Error()
	default:
		s.logger.WithFields(logrus.Fields{
			"request_id": RequestID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		return http.StatusInternalServerError, CodeInternalServerError, err.Error()
	}
}

// ---------------------------------------------------------------------------
// Probes
// ---------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.WithError(err).Warn("readiness check failed")
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
