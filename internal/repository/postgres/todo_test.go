package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/repository/postgres"
)

var (
	t0      = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	columns = []string{"id", "title", "description", "completed", "created_at", "updated_at"}
)

func newRepo(t *testing.T) (repository.TodoRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return postgres.NewTodoRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO todos (title, description, completed, created_at, updated_at)`)).
		WithArgs("Buy milk", nil, false, t0, t0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, t0, t0))

	todo, err := repo.Create(context.Background(), &models.Todo{
		Title: "Buy milk", CreatedAt: t0, UpdatedAt: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), todo.ID)
}

func TestCreatePropagatesStoreErrors(t *testing.T) {
	repo, mock := newRepo(t)

	boom := errors.New("connection refused")
	mock.ExpectQuery(`INSERT INTO todos`).WillReturnError(boom)

	_, err := repo.Create(context.Background(), &models.Todo{Title: "x"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, repository.IsNotFound(err))
}

func TestList(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM todos ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "a", nil, false, t0, t0).
			AddRow(2, "b", "note", true, t0, t0.Add(time.Hour)))

	todos, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Nil(t, todos[0].Description)
	require.NotNil(t, todos[1].Description)
	assert.Equal(t, "note", *todos[1].Description)
	assert.True(t, todos[1].Completed)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM todos WHERE id = \$1`).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateBuildsSingleStatement(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE todos SET description = $3, completed = $4, updated_at = GREATEST($2, updated_at + INTERVAL '1 microsecond') WHERE id = $1 RETURNING`)).
		WithArgs(int64(3), t0, nil, true).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(3, "a", nil, true, t0, t0))

	patch := models.TodoPatch{
		Description: models.Some[*string](nil),
		Completed:   models.Some(true),
	}
	todo, err := repo.Update(context.Background(), 3, patch, t0)
	require.NoError(t, err)
	assert.True(t, todo.Completed)
	assert.Nil(t, todo.Description)
}

func TestUpdateWithEmptyPatchStillTouchesUpdatedAt(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE todos SET updated_at = GREATEST($2,`)).
		WithArgs(int64(3), t0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(3, "a", nil, false, t0, t0))

	_, err := repo.Update(context.Background(), 3, models.TodoPatch{}, t0)
	require.NoError(t, err)
}

func TestUpdateNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`UPDATE todos SET title = \$3`).
		WithArgs(int64(9), t0, "x").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.Update(context.Background(), 9, models.TodoPatch{Title: models.Some("x")}, t0)
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(9), nf.ID)
}

func TestToggle(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE todos SET completed = NOT completed`)).
		WithArgs(int64(4), t0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(4, "a", nil, true, t0, t0))

	todo, err := repo.Toggle(context.Background(), 4, t0)
	require.NoError(t, err)
	assert.True(t, todo.Completed)
}

func TestToggleNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`UPDATE todos SET completed = NOT completed`).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.Toggle(context.Background(), 4, t0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM todos WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM todos WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), repository.ErrNotFound)
}
