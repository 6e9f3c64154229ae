package api

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/models"
)

// Procedure names of the RPC surface.
const (
	ProcCreateTodo = "createTodo"
	ProcGetTodos   = "getTodos"
	ProcUpdateTodo = "updateTodo"
	ProcToggleTodo = "toggleTodo"
	ProcDeleteTodo = "deleteTodo"
	ProcGetStats   = "getStats"
)

// procedure decodes its own input from the request and returns the result
// to place in the envelope. Queries may be called with GET, mutations only
// with POST.
type procedure struct {
	mutation bool
	call     func(w http.ResponseWriter, r *http.Request) (any, error)
}

// rpcEnvelope is the body of every RPC response.
type rpcEnvelope struct {
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func query[Out any](fn func(context.Context) (Out, error)) procedure {
	return procedure{
		call: func(w http.ResponseWriter, r *http.Request) (any, error) {
			var in struct{}
			if err := decodeJSON(w, r, &in, true); err != nil {
				return nil, err
			}
			return fn(r.Context())
		},
	}
}

func mutation[In, Out any](fn func(context.Context, In) (Out, error)) procedure {
	return procedure{
		mutation: true,
		call: func(w http.ResponseWriter, r *http.Request) (any, error) {
			var in In
			if err := decodeJSON(w, r, &in, false); err != nil {
				return nil, err
			}
			return fn(r.Context(), in)
		},
	}
}

func (s *Server) rpcProcedures() map[string]procedure {
	return map[string]procedure{
		ProcGetTodos:   query(s.svc.ListTodos),
		ProcGetStats:   query(s.svc.Stats),
		ProcCreateTodo: mutation[models.CreateTodoInput](s.svc.CreateTodo),
		ProcUpdateTodo: mutation[models.UpdateTodoInput](s.svc.UpdateTodo),
		ProcToggleTodo: mutation[models.ToggleTodoInput](s.svc.ToggleTodo),
		ProcDeleteTodo: mutation[models.DeleteTodoInput](s.svc.DeleteTodo),
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("procedure")
	proc, ok := s.procedures[name]
	if !ok {
		s.respondRPCError(w, http.StatusNotFound, CodeMethodNotFound, "no procedure named "+name)
		return
	}
	if proc.mutation && r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.respondRPCError(w, http.StatusMethodNotAllowed, CodeMethodNotSupported, name+" must be called with POST")
		return
	}

	result, err := proc.call(w, r)
	if err != nil {
		status, code, msg := s.classify(r, err)
		s.respondRPCError(w, status, code, msg)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"procedure":  name,
	}).Debug("rpc call succeeded")
	s.respondJSON(w, http.StatusOK, rpcEnvelope{Result: result})
}

func (s *Server) respondRPCError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, rpcEnvelope{Error: &rpcError{Code: code, Message: message}})
}
