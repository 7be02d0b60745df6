package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"taskhub.org/internal/auth"
	"taskhub.org/internal/task"
)

// Store bundles the PostgreSQL-backed repositories behind a single
// connection pool with an explicit open/close lifecycle owned by the process
// entry point.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing database handle (used by tests with sqlmock).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Users returns the user repository.
func (s *Store) Users() auth.UserStore { return &userStore{db: s.db} }

// Tasks returns the task repository.
func (s *Store) Tasks() task.Store { return &taskStore{db: s.db} }

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
