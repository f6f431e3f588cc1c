package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eventos/reservas-api/internal/infrastructure/db/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(context.Background(), db, zerolog.Nop()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), sqlite.Config{Path: " "})
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, sqlite.Migrate(ctx, db, zerolog.Nop()))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	require.Equal(t, 2, n)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestMigrate_ExistingLegacyTables(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "legacy.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `
		CREATE TABLE usuarios (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT, correo TEXT UNIQUE, password TEXT, rol TEXT DEFAULT 'usuario');
		CREATE TABLE reservas (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre_cliente TEXT, evento TEXT, proveedor TEXT, fecha TEXT, correo TEXT);
		INSERT INTO usuarios (nombre, correo, password) VALUES ('Ana', 'ana@x.com', 'hash');`)
	require.NoError(t, err)

	require.NoError(t, sqlite.Migrate(ctx, db, zerolog.Nop()))

	user, err := sqlite.NewUserRepository(db, zerolog.Nop()).FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Equal(t, "user", user.Role)
}
