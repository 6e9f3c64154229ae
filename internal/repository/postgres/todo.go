package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
)

const todoColumns = `id, title, description, completed, created_at, updated_at`

type todoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &todoRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	err := row.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Completed,
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `INSERT INTO todos (title, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) List(ctx context.Context) ([]*models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// Update writes the patch in a single statement. updated_at never moves
// backwards or stands still, even if the caller's clock lags the row.
func (r *todoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch, now time.Time) (*models.Todo, error) {
	sets := []string{}
	args := []any{id, now}
	argIdx := 3

	if patch.Title.Set {
		sets = append(sets, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, patch.Title.Value)
		argIdx++
	}
	if patch.Description.Set {
		sets = append(sets, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, patch.Description.Value)
		argIdx++
	}
	if patch.Completed.Set {
		sets = append(sets, fmt.Sprintf("completed = $%d", argIdx))
		args = append(args, patch.Completed.Value)
	}
	sets = append(sets, "updated_at = GREATEST($2, updated_at + INTERVAL '1 microsecond')")

	query := `UPDATE todos SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + todoColumns
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) Toggle(ctx context.Context, id int64, now time.Time) (*models.Todo, error) {
	query := `UPDATE todos SET completed = NOT completed,
		updated_at = GREATEST($2, updated_at + INTERVAL '1 microsecond')
		WHERE id = $1 RETURNING ` + todoColumns
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &repository.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}
	return todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
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
