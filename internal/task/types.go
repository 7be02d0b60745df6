package task

import (
	"context"
	"errors"
	"time"
)

// Task is a personal task record. Ownership is immutable after creation.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrNotFound     = errors.New("task: not found")
	ErrInvalidInput = errors.New("task: invalid input")
)

// CreateInput describes a task to create.
type CreateInput struct {
	Title       string
	Description string
}

// UpdateInput carries partial task mutations. Nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
}

// Store describes persistence operations for tasks. Implementations return
// ErrNotFound for missing records.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Find(ctx context.Context, id string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*Task, error)
	ListAll(ctx context.Context, limit int) ([]*Task, error)
	Update(ctx context.Context, id string, upd UpdateInput) (*Task, error)
	Delete(ctx context.Context, id string) error
}
