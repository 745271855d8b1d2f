package directory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLite(t *testing.T) *SQL {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	dir, err := NewSQL(db, SQLite)
	require.NoError(t, err)
	require.NoError(t, dir.Migrate(context.Background()))
	return dir
}

func TestNewSQL(t *testing.T) {
	_, err := NewSQL(nil, SQLite)
	assert.EqualError(t, err, "db cannot be nil")

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQL(db, "mysql")
	assert.EqualError(t, err, `unsupported dialect: "mysql"`)
}

func TestSQL(t *testing.T) {
	ctx := context.Background()
	dir := newSQLite(t)

	require.NoError(t, dir.Save(ctx, User{ID: "u1", Secret: "s1"}))

	t.Run("it finds a stored user", func(t *testing.T) {
		user, err := dir.FindUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, &User{ID: "u1", Secret: "s1"}, user)
	})

	t.Run("it returns nil for an unknown user", func(t *testing.T) {
		user, err := dir.FindUserByID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("it replaces the secret of an existing user", func(t *testing.T) {
		require.NoError(t, dir.Save(ctx, User{ID: "u1", Secret: "s2"}))

		user, err := dir.FindUserByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "s2", user.Secret)
	})

	t.Run("it rejects users without an id", func(t *testing.T) {
		assert.ErrorIs(t, dir.Save(ctx, User{Secret: "s"}), ErrUserIDRequired)
	})

	t.Run("it reports lookup failures", func(t *testing.T) {
		broken := newSQLite(t)
		_, err := broken.db.ExecContext(ctx, "DROP TABLE users")
		require.NoError(t, err)

		user, err := broken.FindUserByID(ctx, "u1")
		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestSQL_Placeholder(t *testing.T) {
	assert.Equal(t, "?", (&SQL{dialect: SQLite}).placeholder(1))
	assert.Equal(t, "$2", (&SQL{dialect: Postgres}).placeholder(2))
}
