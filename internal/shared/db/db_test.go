package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/election-odds-ingest/internal/shared/config"
)

func TestConnectSQLiteMemory(t *testing.T) {
	db, err := ConnectSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	// mesma conexão: a tabela continua visível
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestConnectDispatchesOnDriver(t *testing.T) {
	cfg := config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "odds.db")}
	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Connect(context.Background(), config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
