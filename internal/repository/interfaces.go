package repository

import (
	"context"
	"time"

	"github.com/Kerhoff/todoapi/internal/models"
)

// TodoRepository defines the interface for todo data operations.
//
// Update, Toggle and Delete return a *NotFoundError when no row has the
// given id. Update and Toggle apply their change atomically so concurrent
// callers on the same id cannot lose a write.
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	List(ctx context.Context) ([]*models.Todo, error)
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	Update(ctx context.Context, id int64, patch models.TodoPatch, now time.Time) (*models.Todo, error)
	Toggle(ctx context.Context, id int64, now time.Time) (*models.Todo, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
