package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLWrapper(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	plain, err := encodeWithTTL([]byte("x"), 0, now)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), plain)

	wrapped, err := encodeWithTTL([]byte("x"), time.Second, now)
	require.NoError(t, err)

	v, expired, err := decodeWithTTL(wrapped, now)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, []byte("x"), v)

	_, expired, err = decodeWithTTL(wrapped, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestMemoryKVExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1_700_000_000, 0)

	m := &MemoryKV{now: func() time.Time { return clock }}
	require.NoError(t, m.Set(ctx, "s", []byte("v"), time.Minute))

	ok, err := m.Exists(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)

	_, err = m.Get(ctx, "s")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := m.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
