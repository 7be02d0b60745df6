package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskhub.org/internal/auth"
	"taskhub.org/internal/ids"
)

const defaultListLimit = 100

// Service implements task operations guarded by the role/ownership gates.
// Every operation takes the already-resolved identity; the service performs
// no token handling of its own.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("task store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create records a new task owned by the caller.
func (s *Service) Create(ctx context.Context, ident *auth.User, in CreateInput) (*Task, error) {
	if ident == nil {
		return nil, auth.ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	t := &Task{
		ID:          ids.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     ident.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListOwned returns the caller's own tasks. The scoping happens in the query;
// no gate applies.
func (s *Service) ListOwned(ctx context.Context, ident *auth.User) ([]*Task, error) {
	if ident == nil {
		return nil, auth.ErrForbidden
	}
	return s.store.ListByOwner(ctx, ident.ID, defaultListLimit)
}

// ListAll returns every task regardless of owner. Admin only.
func (s *Service) ListAll(ctx context.Context, ident *auth.User) ([]*Task, error) {
	if err := auth.RequireAdmin(ident); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx, defaultListLimit)
}

// Get loads a single task, visible to its owner or any admin.
func (s *Service) Get(ctx context.Context, ident *auth.User, id string) (*Task, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOrAdmin(ident, t.OwnerID); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies a partial update. Owner or any admin may mutate; ownership
// itself never changes.
func (s *Service) Update(ctx context.Context, ident *auth.User, id string, upd UpdateInput) (*Task, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOrAdmin(ident, t.OwnerID); err != nil {
		return nil, err
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		upd.Title = &title
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	return s.store.Update(ctx, id, upd)
}

// Delete removes a task, permitted to its owner or any admin.
func (s *Service) Delete(ctx context.Context, ident *auth.User, id string) error {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwnerOrAdmin(ident, t.OwnerID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) fetch(ctx context.Context, id string) (*Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}
