package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/metrics"
	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/pkg/logger"
)

// Clock returns the current time. Tests substitute a deterministic one.
type Clock func() time.Time

// Service is the business logic layer in front of the todo store. Each
// method is one self-contained unit of work; the service keeps no state
// between calls.
type Service struct {
	todos   repository.TodoRepository
	logger  *logrus.Logger
	metrics *metrics.Metrics
	clock   Clock
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics records operation outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a new Service on top of the given repository.
func New(todos repository.TodoRepository, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{todos: todos, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now is UTC at microsecond precision, the resolution Postgres keeps.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// CreateTodo inserts a new, not yet completed todo.
func (s *Service) CreateTodo(ctx context.Context, in models.CreateTodoInput) (*models.Todo, error) {
	v := &validator{}
	v.check(strings.TrimSpace(in.Title) != "", "title is required")
	if err := v.err(); err != nil {
		s.observe("create", err)
		return nil, err
	}

	now := s.now()
	todo, err := s.todos.Create(ctx, &models.Todo{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	s.observe("create", err)
	if err != nil {
		s.logger.WithError(err).Error("Todo creation failed")
		return nil, err
	}

	logger.WithFields(s.logger, logrus.Fields{"todo_id": todo.ID}).Info("Todo created")
	return todo, nil
}

// ListTodos returns every todo in insertion order.
func (s *Service) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	todos, err := s.todos.List(ctx)
	s.observe("list", err)
	if err != nil {
		s.logger.WithError(err).Error("Todo listing failed")
		return nil, err
	}
	if todos == nil {
		todos = []*models.Todo{}
	}
	return todos, nil
}

// UpdateTodo applies the fields present in the input and refreshes
// updated_at, even when nothing visible changes.
func (s *Service) UpdateTodo(ctx context.Context, in models.UpdateTodoInput) (*models.Todo, error) {
	v := &validator{}
	if in.Title.Set {
		v.check(!in.Title.Null(), "title must not be null")
		v.check(strings.TrimSpace(in.Title.Value) != "", "title must not be empty")
	}
	if in.Completed.Set {
		v.check(!in.Completed.Null(), "completed must not be null")
	}
	if err := v.err(); err != nil {
		s.observe("update", err)
		return nil, err
	}

	patch := in.Patch()
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
	}

	todo, err := s.todos.Update(ctx, in.ID, patch, s.now())
	s.observe("update", err)
	if err != nil {
		s.logFailure(err, "update", in.ID)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"todo_id":     todo.ID,
		"title":       patch.Title.Set,
		"description": patch.Description.Set,
		"completed":   patch.Completed.Set,
	}).Info("Todo updated")
	return todo, nil
}

// ToggleTodo flips the completed flag.
func (s *Service) ToggleTodo(ctx context.Context, in models.ToggleTodoInput) (*models.Todo, error) {
	todo, err := s.todos.Toggle(ctx, in.ID, s.now())
	s.observe("toggle", err)
	if err != nil {
		s.logFailure(err, "toggle", in.ID)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"todo_id":   todo.ID,
		"completed": todo.Completed,
	}).Info("Todo toggled")
	return todo, nil
}

// DeleteTodo removes the row for good. Deleting the same id twice fails
// the second time.
func (s *Service) DeleteTodo(ctx context.Context, in models.DeleteTodoInput) (*models.DeleteResult, error) {
	err := s.todos.Delete(ctx, in.ID)
	s.observe("delete", err)
	if err != nil {
		s.logFailure(err, "delete", in.ID)
		return nil, err
	}

	s.logger.WithField("todo_id", in.ID).Info("Todo deleted")
	return &models.DeleteResult{Success: true}, nil
}

// Stats counts all and completed todos.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	todos, err := s.ListTodos(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			stats.Completed++
		}
	}
	return stats, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.todos.Ping(ctx)
}

func (s *Service) logFailure(err error, op string, id int64) {
	entry := s.logger.WithFields(logrus.Fields{"todo_id": id, "op": op})
	if repository.IsNotFound(err) {
		entry.Info("Todo not found")
		return
	}
	entry.WithError(err).Error("Todo operation failed")
}

func (s *Service) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(op, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case repository.IsNotFound(err):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
