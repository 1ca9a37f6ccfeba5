package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	s, err := Open(ctx, Options{Backend: BackendMemory}, log)
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "p.db")}, log)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: BackendPostgres}, log)
	require.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendRedis}, log)
	require.Error(t, err)

	_, err = Open(ctx, Options{Backend: "etcd"}, log)
	require.ErrorIs(t, err, ErrUnknownBackend)
}
