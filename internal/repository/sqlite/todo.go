// Package sqlite stores todos in an SQLite file through sqlx. It is meant for
// single-node runs; the pool is expected to hold a single connection so the
// read-modify-write transactions below serialize.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
)

const selectTodo = `SELECT id, title, description, completed, created_at, updated_at FROM todos`

type todoRepository struct {
	db *sqlx.DB
}

func NewTodoRepository(db *sqlx.DB) repository.TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		todo.Title, todo.Description, todo.Completed, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	todo.ID = id
	return todo, nil
}

func (r *todoRepository) List(ctx context.Context) ([]*models.Todo, error) {
	todos := []*models.Todo{}
	if err := r.db.SelectContext(ctx, &todos, selectTodo+` ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	return todos, nil
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	return getByID(ctx, r.db, id)
}

func getByID(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Todo, error) {
	todo := &models.Todo{}
	if err := sqlx.GetContext(ctx, q, todo, selectTodo+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch, now time.Time) (*models.Todo, error) {
	return r.modify(ctx, id, "update", func(todo *models.Todo) {
		todo.Apply(patch, now)
	})
}

func (r *todoRepository) Toggle(ctx context.Context, id int64, now time.Time) (*models.Todo, error) {
	return r.modify(ctx, id, "toggle", func(todo *models.Todo) {
		todo.Apply(models.TodoPatch{Completed: models.Some(!todo.Completed)}, now)
	})
}

// modify loads the row, lets fn change it and writes it back in one
// transaction.
func (r *todoRepository) modify(ctx context.Context, id int64, op string, fn func(*models.Todo)) (*models.Todo, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to %s todo: %w", op, err)
	}
	defer tx.Rollback()

	todo, err := getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	fn(todo)

	_, err = tx.NamedExecContext(ctx,
		`UPDATE todos SET title = :title, description = :description, completed = :completed, updated_at = :updated_at
		WHERE id = :id`, todo)
	if err != nil {
		return nil, fmt.Errorf("failed to %s todo: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to %s todo: %w", op, err)
	}
	return todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n == 0 {
		return &repository.NotFoundError{ID: id}
	}
	return nil
}

func (r *todoRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
