package auth

import "time"

// Role determines coarse authorization. There are exactly two roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a registered principal capable of authenticating.
//
// Permissions is an advisory capability set: it is persisted and returned to
// clients but not consulted by any authorization decision, which is driven by
// Role alone.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenGrant is the credential material returned by a successful login.
type TokenGrant struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RegisterInput describes a user to create. Role defaults to RoleUser when
// empty.
type RegisterInput struct {
	Email       string
	Name        string
	Password    string
	Role        Role
	Permissions []string
}

// UserUpdate carries partial user mutations. Nil fields are left untouched.
// The password hash has no update path.
type UserUpdate struct {
	Name        *string
	Role        *Role
	Permissions []string
}
