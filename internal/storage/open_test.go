package storage

import (
	"context"
	"path/filepath"
	"testing"

	"schnicken/internal/config"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "open.db")

	st, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Ping(context.Background()))
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StorageDriver = "mongo"
	_, err := Open(context.Background(), &cfg)
	require.ErrorContains(t, err, "unknown storage driver")
}
