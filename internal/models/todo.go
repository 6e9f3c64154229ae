package models

import (
	"encoding/json"
	"time"
)

// Todo represents a todo item
type Todo struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// HasDescription returns true if the todo carries a non-empty description
func (t *Todo) HasDescription() bool {
	return t.Description != nil && *t.Description != ""
}

// Apply writes the fields selected by patch into t and moves UpdatedAt
// forward. Stores that cannot express a patch in one statement use it after
// loading the row inside a transaction.
func (t *Todo) Apply(patch TodoPatch, now time.Time) {
	if patch.Title.Set {
		t.Title = patch.Title.Value
	}
	if patch.Description.Set {
		t.Description = patch.Description.Value
	}
	if patch.Completed.Set {
		t.Completed = patch.Completed.Value
	}
	t.UpdatedAt = NextUpdatedAt(t.UpdatedAt, now)
}

// NextUpdatedAt returns now, or the smallest step past prev when the clock
// has not advanced beyond it. Timestamps are kept at microsecond precision.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// TodoPatch lists the columns an update writes. Unset fields keep their
// stored value.
type TodoPatch struct {
	Title       Optional[string]
	Description Optional[*string]
	Completed   Optional[bool]
}

// CreateTodoInput is the payload of the create operation.
type CreateTodoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTodoInput is the payload of the update operation. Only fields that
// are present in the request are applied; a present null description clears
// it.
type UpdateTodoInput struct {
	ID          int64             `json:"id"`
	Title       Optional[string]  `json:"title"`
	Description Optional[*string] `json:"description"`
	Completed   Optional[bool]    `json:"completed"`
}

// Patch converts the input into the store-facing form.
func (in UpdateTodoInput) Patch() TodoPatch {
	return TodoPatch{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
	}
}

// MarshalJSON omits unset fields so the receiving side sees them as absent.
func (in UpdateTodoInput) MarshalJSON() ([]byte, error) {
	out := map[string]any{"id": in.ID}
	if in.Title.Set {
		out["title"] = in.Title.Value
	}
	if in.Description.Set {
		out["description"] = in.Description.Value
	}
	if in.Completed.Set {
		out["completed"] = in.Completed.Value
	}
	return json.Marshal(out)
}

// ToggleTodoInput is the payload of the toggle operation.
type ToggleTodoInput struct {
	ID int64 `json:"id"`
}

// DeleteTodoInput is the payload of the delete operation.
type DeleteTodoInput struct {
	ID int64 `json:"id"`
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Success bool `json:"success"`
}

// Stats summarises the table the way list views show it.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Pending returns the number of todos that are not completed
func (s Stats) Pending() int {
	return s.Total - s.Completed
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
