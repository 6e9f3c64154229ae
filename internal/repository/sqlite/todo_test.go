package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/storetest"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func create(t *testing.T, repo repository.TodoRepository, title string, desc *string) *models.Todo {
	t.Helper()
	todo, err := repo.Create(context.Background(), &models.Todo{
		Title: title, Description: desc, CreatedAt: t0, UpdatedAt: t0,
	})
	require.NoError(t, err)
	return todo
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)

	first := create(t, repo, "Buy milk", nil)
	second := create(t, repo, "Walk dog", models.StringPtr("twice"))
	assert.Greater(t, second.ID, first.ID)

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk dog", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "twice", *got.Description)
	assert.False(t, got.Completed)
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(t0))

	got, err = repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)

	todos, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)

	create(t, repo, "a", nil)
	create(t, repo, "b", nil)
	create(t, repo, "c", nil)

	todos, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, "a", todos[0].Title)
	assert.Equal(t, "c", todos[2].Title)
}

func TestUpdateAppliesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)
	todo := create(t, repo, "Buy milk", models.StringPtr("whole"))

	updated, err := repo.Update(ctx, todo.ID, models.TodoPatch{Completed: models.Some(true)}, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "whole", *updated.Description)
	assert.True(t, updated.Completed)
	assert.True(t, updated.UpdatedAt.Equal(t0.Add(time.Minute)))
	assert.True(t, updated.CreatedAt.Equal(t0))

	updated, err = repo.Update(ctx, todo.ID, models.TodoPatch{Description: models.Some[*string](nil)}, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.True(t, updated.Completed)

	stored, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Description)
	assert.True(t, stored.UpdatedAt.Equal(t0.Add(2*time.Minute)))
}

func TestUpdateKeepsUpdatedAtIncreasing(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)
	todo := create(t, repo, "a", nil)

	// Same clock reading as creation.
	updated, err := repo.Update(ctx, todo.ID, models.TodoPatch{}, t0)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(t0))
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)
	todo := create(t, repo, "a", nil)

	toggled, err := repo.Toggle(ctx, todo.ID, t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = repo.Toggle(ctx, todo.ID, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.True(t, toggled.UpdatedAt.Equal(t0.Add(2*time.Second)))
}

func TestConcurrentTogglesAreNotLost(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)
	todo := create(t, repo, "a", nil)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Toggle(ctx, todo.ID, t0.Add(time.Duration(i)*time.Millisecond))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	// An even number of flips lands back where it started.
	assert.False(t, got.Completed)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)
	todo := create(t, repo, "a", nil)

	require.NoError(t, repo.Delete(ctx, todo.ID))

	err := repo.Delete(ctx, todo.ID)
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))

	_, err = repo.GetByID(ctx, todo.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Ids are not reused after a delete.
	next := create(t, repo, "b", nil)
	assert.Greater(t, next.ID, todo.ID)
}

func TestMissingIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := storetest.NewRepository(t)

	_, err := repo.Update(ctx, 42, models.TodoPatch{Title: models.Some("x")}, t0)
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(42), nf.ID)
	assert.EqualError(t, err, "todo with id 42 not found")

	_, err = repo.Toggle(ctx, 42, t0)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Delete(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEmptyTitleRejectedByStore(t *testing.T) {
	repo := storetest.NewRepository(t)

	_, err := repo.Create(context.Background(), &models.Todo{CreatedAt: t0, UpdatedAt: t0})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	assert.NoError(t, storetest.NewRepository(t).Ping(context.Background()))
}
