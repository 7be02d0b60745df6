package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// memUserStore is an in-memory UserStore used to exercise the service without
// a database.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*User
	fail  error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*User)}
}

func (m *memUserStore) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) Find(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUserStore) List(ctx context.Context, offset, limit int) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	all := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memUserStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Permissions != nil {
		u.Permissions = upd.Permissions
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (m *memUserStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func newTestService(t *testing.T, store UserStore, opts ...ServiceOption) *Service {
	t.Helper()
	iss := newTestIssuer(t)
	svc, err := NewService(store, iss, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	iss := newTestIssuer(t)
	if _, err := NewService(nil, iss); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewService(newMemUserStore(), nil); err == nil {
		t.Fatalf("expected error for nil issuer")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "  Alice@Example.COM ",
		Name:     "Alice",
		Password: "wonderland",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Role != RoleUser {
		t.Fatalf("expected default role USER, got %s", user.Role)
	}
	if user.PasswordHash == "wonderland" || user.PasswordHash == "" {
		t.Fatalf("password stored incorrectly")
	}

	grant, logged, err := svc.Login(ctx, "alice@example.com", "wonderland")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if grant.TokenType != "bearer" || grant.AccessToken == "" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if logged.ID != user.ID {
		t.Fatalf("login resolved wrong user")
	}

	resolved, err := svc.Authenticate(ctx, grant.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if resolved.ID != user.ID || resolved.Email != user.Email {
		t.Fatalf("authenticate resolved wrong user: %+v", resolved)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newMemUserStore())
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"empty email", RegisterInput{Password: "pw"}},
		{"email without at sign", RegisterInput{Email: "nope", Password: "pw"}},
		{"empty password", RegisterInput{Email: "a@b.c"}},
		{"unknown role", RegisterInput{Email: "a@b.c", Password: "pw", Role: Role("ROOT")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, newMemUserStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "pw2"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t, newMemUserStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "builder"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, unknownErr := svc.Login(ctx, "nobody@example.com", "builder")
	_, _, wrongPwErr := svc.Login(ctx, "bob@example.com", "not-the-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongPwErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", unknownErr, wrongPwErr)
	}
}

func TestLoginStorageFailure(t *testing.T) {
	store := newMemUserStore()
	store.fail = errors.New("connection refused")
	svc := newTestService(t, store)

	_, _, err := svc.Login(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolveUsesStoredRole(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "pw", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	grant, _, err := svc.Login(ctx, "carol@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Demote after issuance; the token still carries ADMIN but resolution
	// must reflect storage.
	demoted := RoleUser
	if _, err := svc.UpdateUser(ctx, user.ID, UserUpdate{Role: &demoted}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	resolved, err := svc.Authenticate(ctx, grant.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if resolved.Role != RoleUser {
		t.Fatalf("expected stored role USER, got %s", resolved.Role)
	}
}

func TestResolveDeletedSubject(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "gone@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	grant, _, err := svc.Login(ctx, "gone@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := svc.Authenticate(ctx, grant.AccessToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted subject, got %v", err)
	}
}

func TestResolveStorageFailureFailsClosed(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "dave@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	grant, _, err := svc.Login(ctx, "dave@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	store.fail = errors.New("connection reset")
	if _, err := svc.Authenticate(ctx, grant.AccessToken); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolveRejectsEmptyClaims(t *testing.T) {
	svc := newTestService(t, newMemUserStore())
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, nil); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for nil claims, got %v", err)
	}
	if _, err := svc.Resolve(ctx, &Claims{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for blank subject, got %v", err)
	}
}

func TestUpdateUserValidation(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "erin@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	bad := Role("SUPERUSER")
	if _, err := svc.UpdateUser(ctx, user.ID, UserUpdate{Role: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	name := "  Erin  "
	updated, err := svc.UpdateUser(ctx, user.ID, UserUpdate{Name: &name, Permissions: []string{"reports:read", "reports:read", " "}})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Erin" {
		t.Fatalf("name not trimmed: %q", updated.Name)
	}
	if len(updated.Permissions) != 1 || updated.Permissions[0] != "reports:read" {
		t.Fatalf("permissions not deduplicated: %v", updated.Permissions)
	}
}

func TestListUsersClampsPaging(t *testing.T) {
	store := newMemUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, email := range []string{"u1@example.com", "u2@example.com", "u3@example.com"} {
		u := &User{ID: email, Email: email, Role: RoleUser, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Create(ctx, u); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	users, err := svc.ListUsers(ctx, -5, 0)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	if users[0].Email != "u1@example.com" {
		t.Fatalf("expected creation order, got %s first", users[0].Email)
	}

	users, err = svc.ListUsers(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Email != "u2@example.com" {
		t.Fatalf("unexpected page: %+v", users)
	}
}
