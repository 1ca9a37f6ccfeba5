package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "a"))
	require.NoError(t, m.Set(ctx, "k", "b"))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Delete(ctx, "k"))
	require.Equal(t, 0, m.Len())

	require.NoError(t, m.Close())
	require.NoError(t, m.Set(ctx, "after-close", "ok"))
}
