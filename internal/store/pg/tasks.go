package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"taskhub.org/internal/ids"
	"taskhub.org/internal/task"
)

var _ task.Store = (*taskStore)(nil)

type taskStore struct{ db *sql.DB }

const taskColumns = `id, title, description, owner_id, created_at, updated_at`

func (s *taskStore) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into tasks(id, title, description, owner_id) values($1,$2,$3,$4)`,
		t.ID, t.Title, t.Description, t.OwnerID,
	)
	return err
}

func (s *taskStore) Find(ctx context.Context, id string) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+taskColumns+` from tasks where id=$1`, id)
	return scanTask(row)
}

func (s *taskStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+taskColumns+` from tasks where owner_id=$1 order by created_at asc limit $2`,
		ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *taskStore) ListAll(ctx context.Context, limit int) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+taskColumns+` from tasks order by created_at asc limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *taskStore) Update(ctx context.Context, id string, upd task.UpdateInput) (*task.Task, error) {
	assignments := make([]string, 0, 2)
	args := make([]any, 0, 3)
	args = append(args, id)

	if upd.Title != nil {
		args = append(args, *upd.Title)
		assignments = append(assignments, "title = $"+strconv.Itoa(len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		assignments = append(assignments, "description = $"+strconv.Itoa(len(args)))
	}
	if len(assignments) == 0 {
		return s.Find(ctx, id)
	}
	assignments = append(assignments, "updated_at = now()")

	query := `update tasks set ` + strings.Join(assignments, ", ") +
		` where id=$1 returning ` + taskColumns
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanTask(row)
}

func (s *taskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*task.Task, error) {
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
