package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the placeholder syntax and upsert statement of a database.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// SQL is a Directory backed by a users table:
//
//	users(id TEXT PRIMARY KEY, password TEXT NOT NULL)
//
// The password column is read as the user's secret.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL returns a SQL directory using db. The caller owns db.
func NewSQL(db *sql.DB, dialect Dialect) (*SQL, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	switch dialect {
	case SQLite, Postgres:
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", dialect)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

// Migrate creates the users table if it does not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS users (
		id       TEXT PRIMARY KEY,
		password TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// FindUserByID implements Directory.
func (s *SQL) FindUserByID(ctx context.Context, id string) (*User, error) {
	query := "SELECT id, password FROM users WHERE id = " + s.placeholder(1)

	var user User
	err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Secret)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", id, err)
	}
	return &user, nil
}

// Save inserts the user or replaces the secret of an existing one.
func (s *SQL) Save(ctx context.Context, user User) error {
	if user.ID == "" {
		return ErrUserIDRequired
	}

	query := fmt.Sprintf(
		"INSERT INTO users (id, password) VALUES (%s, %s) ON CONFLICT (id) DO UPDATE SET password = excluded.password",
		s.placeholder(1), s.placeholder(2),
	)
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Secret); err != nil {
		return fmt.Errorf("failed to save user %q: %w", user.ID, err)
	}
	return nil
}

func (s *SQL) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
