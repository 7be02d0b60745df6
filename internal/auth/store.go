package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
// Implementations return ErrNotFound for missing records and ErrConflict for
// uniqueness violations.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
}
