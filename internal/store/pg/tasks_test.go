package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"taskhub.org/internal/task"
)

func taskRows(tasks ...*task.Task) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "description", "owner_id", "created_at", "updated_at"})
	for _, t := range tasks {
		rows.AddRow(t.ID, t.Title, t.Description, t.OwnerID, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func TestTaskCreate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`insert into tasks(id, title, description, owner_id) values($1,$2,$3,$4)`)).
		WithArgs("t1", "write report", "with charts", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Tasks().Create(context.Background(), &task.Task{
		ID:          "t1",
		Title:       "write report",
		Description: "with charts",
		OwnerID:     "u1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestTaskFind(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`select id, title, description, owner_id, created_at, updated_at from tasks where id=$1`)).
		WithArgs("t1").
		WillReturnRows(taskRows(&task.Task{ID: "t1", Title: "write report", OwnerID: "u1", CreatedAt: now, UpdatedAt: now}))

	got, err := store.Tasks().Find(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != "t1" || got.OwnerID != "u1" {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestTaskFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select .+ from tasks where id=\$1`).
		WithArgs("missing").
		WillReturnRows(taskRows())

	if _, err := store.Tasks().Find(context.Background(), "missing"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskListByOwner(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`select id, title, description, owner_id, created_at, updated_at from tasks where owner_id=$1 order by created_at asc limit $2`)).
		WithArgs("u1", 100).
		WillReturnRows(taskRows(
			&task.Task{ID: "t1", Title: "one", OwnerID: "u1", CreatedAt: now, UpdatedAt: now},
			&task.Task{ID: "t2", Title: "two", OwnerID: "u1", CreatedAt: now, UpdatedAt: now},
		))

	tasks, err := store.Tasks().ListByOwner(context.Background(), "u1", 100)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(tasks) != 2 || tasks[1].ID != "t2" {
		t.Fatalf("unexpected listing: %+v", tasks)
	}
}

func TestTaskListAll(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`select id, title, description, owner_id, created_at, updated_at from tasks order by created_at asc limit $1`)).
		WithArgs(100).
		WillReturnRows(taskRows(
			&task.Task{ID: "t1", Title: "one", OwnerID: "u1", CreatedAt: now, UpdatedAt: now},
			&task.Task{ID: "t2", Title: "two", OwnerID: "u2", CreatedAt: now, UpdatedAt: now},
		))

	tasks, err := store.Tasks().ListAll(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("unexpected listing: %+v", tasks)
	}
}

func TestTaskUpdatePartial(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`update tasks set title = $2, updated_at = now() where id=$1 returning id, title, description, owner_id, created_at, updated_at`)).
		WithArgs("t1", "final").
		WillReturnRows(taskRows(&task.Task{ID: "t1", Title: "final", OwnerID: "u1", CreatedAt: now, UpdatedAt: now}))

	title := "final"
	got, err := store.Tasks().Update(context.Background(), "t1", task.UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "final" {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestTaskUpdateNoFieldsFallsBackToFind(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`select .+ from tasks where id=\$1`).
		WithArgs("t1").
		WillReturnRows(taskRows(&task.Task{ID: "t1", Title: "same", OwnerID: "u1", CreatedAt: now, UpdatedAt: now}))

	got, err := store.Tasks().Update(context.Background(), "t1", task.UpdateInput{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "same" {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestTaskDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`delete from tasks where id=$1`)).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Tasks().Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestTaskDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`delete from tasks where id=$1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Tasks().Delete(context.Background(), "missing"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
