package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhub.org/internal/ids"
)

const defaultListLimit = 100

// Service provides credential issuance, identity resolution and user
// management on top of a UserStore. It performs at most one storage read per
// authenticated request and holds no locks.
type Service struct {
	users    UserStore
	issuer   *Issuer
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures the access token lifetime used by Login.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service with explicit dependencies; there is no
// process-wide storage handle.
func NewService(users UserStore, issuer *Issuer, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{
		users:    users,
		issuer:   issuer,
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates a user. Role defaults to RoleUser; a duplicate email
// surfaces as ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		Permissions:  dedupeStrings(in.Permissions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and mints an access token carrying the user's
// role, email and display name as issued-time claims. Unknown email and wrong
// password are deliberately indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (TokenGrant, *User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return TokenGrant{}, nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenGrant{}, nil, ErrInvalidCredentials
		}
		return TokenGrant{}, nil, storeErr(err)
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenGrant{}, nil, ErrInvalidCredentials
	}
	extra := map[string]string{
		"email": user.Email,
		"name":  user.Name,
	}
	token, expiresAt, err := s.issuer.Issue(user.ID, user.Role, extra, s.tokenTTL)
	if err != nil {
		return TokenGrant{}, nil, fmt.Errorf("issue token: %w", err)
	}
	return TokenGrant{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, user, nil
}

// Authenticate validates a bearer token and resolves it to the current user
// record.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, claims)
}

// Resolve maps verified claims to a freshly loaded user record. The stored
// role, not the embedded role claim, drives every authorization decision, so
// a role downgrade takes effect on the next request. A deleted subject is
// surfaced as ErrNotFound; storage failures fail closed as ErrUnavailable.
func (s *Service) Resolve(ctx context.Context, claims *Claims) (*User, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	return user, nil
}

// ListUsers returns users in creation order.
func (s *Service) ListUsers(ctx context.Context, offset, limit int) ([]*User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.users.List(ctx, offset, limit)
}

// GetUser loads a single user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.users.Find(ctx, id)
}

// UpdateUser applies a partial update. The password hash is immutable here;
// there is no update path for it.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *upd.Role)
	}
	if upd.Permissions != nil {
		perms := dedupeStrings(upd.Permissions)
		if perms == nil {
			perms = []string{}
		}
		upd.Permissions = perms
	}
	return s.users.Update(ctx, id, upd)
}

// DeleteUser removes a user. Tokens already issued for the user keep failing
// with ErrNotFound on their next resolution; there is no revocation list.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.users.Delete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeErr classifies a storage failure as ErrUnavailable so that callers
// fail closed instead of leaking driver errors.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
