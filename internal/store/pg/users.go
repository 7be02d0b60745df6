package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"taskhub.org/internal/auth"
	"taskhub.org/internal/ids"
)

var _ auth.UserStore = (*userStore)(nil)

type userStore struct{ db *sql.DB }

const userColumns = `id, email, name, password_hash, role, permissions, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	perms, err := marshalPermissions(u.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into users(id, email, name, password_hash, role, permissions) values($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), perms,
	)
	if isUniqueViolation(err) {
		return auth.ErrConflict
	}
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *userStore) List(ctx context.Context, offset, limit int) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at asc offset $1 limit $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	assignments := make([]string, 0, 3)
	args := make([]any, 0, 4)
	args = append(args, id)

	if upd.Name != nil {
		args = append(args, *upd.Name)
		assignments = append(assignments, "name = $"+strconv.Itoa(len(args)))
	}
	if upd.Role != nil {
		args = append(args, string(*upd.Role))
		assignments = append(assignments, "role = $"+strconv.Itoa(len(args)))
	}
	if upd.Permissions != nil {
		perms, err := marshalPermissions(upd.Permissions)
		if err != nil {
			return nil, err
		}
		args = append(args, perms)
		assignments = append(assignments, "permissions = $"+strconv.Itoa(len(args)))
	}
	if len(assignments) == 0 {
		return s.Find(ctx, id)
	}
	assignments = append(assignments, "updated_at = now()")

	query := `update users set ` + strings.Join(assignments, ", ") +
		` where id=$1 returning ` + userColumns
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanUser(row)
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u     auth.User
		role  string
		perms []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &perms, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.Permissions = unmarshalPermissions(perms)
	return &u, nil
}

func marshalPermissions(perms []string) ([]byte, error) {
	if perms == nil {
		perms = []string{}
	}
	return json.Marshal(perms)
}

func unmarshalPermissions(raw []byte) []string {
	perms := []string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &perms)
	}
	return perms
}
