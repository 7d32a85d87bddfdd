package blob_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
)

func newLocal(t *testing.T) (*blob.Local, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	l, err := blob.NewLocal(fs, "/data")
	require.NoError(t, err)

	return l, fs
}

func TestLocalWriteRead(t *testing.T) {
	ctx := context.Background()
	l, _ := newLocal(t)

	require.NoError(t, l.Write(ctx, "abc", strings.NewReader("hello"), 5))

	rc, err := l.Read(ctx, "abc", blob.ReadOptions{})
	require.NoError(t, err)

	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	info, err := l.Stat(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
}

func TestLocalWriteExistingKeyKeepsContentAndTouches(t *testing.T) {
	ctx := context.Background()
	l, fs := newLocal(t)

	require.NoError(t, l.Write(ctx, "abc", strings.NewReader("first"), 5))

	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, fs.Chtimes("/data/abc", old, old))

	require.NoError(t, l.Write(ctx, "abc", strings.NewReader("second!"), 7))

	info, err := l.Stat(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.WithinDuration(t, time.Now(), info.ModTime, time.Minute)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestLocalWriteFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	l, fs := newLocal(t)

	err := l.Write(ctx, "abc", failingReader{}, 10)
	require.Error(t, err)

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = l.Stat(ctx, "abc")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestLocalMissingKey(t *testing.T) {
	ctx := context.Background()
	l, _ := newLocal(t)

	_, err := l.Read(ctx, "nope", blob.ReadOptions{})
	assert.ErrorIs(t, err, blob.ErrNotFound)

	assert.ErrorIs(t, l.Delete(ctx, "nope"), blob.ErrNotFound)
}

func TestLocalRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	l, _ := newLocal(t)

	for _, key := range []string{"", "../x", "a/b", ".tmp-1"} {
		assert.Error(t, l.Write(ctx, key, strings.NewReader("x"), 1), key)
	}
}

func TestLocalWalkSkipsTempFiles(t *testing.T) {
	ctx := context.Background()
	l, fs := newLocal(t)

	require.NoError(t, l.Write(ctx, "a", strings.NewReader("1"), 1))
	require.NoError(t, l.Write(ctx, "b", strings.NewReader("2"), 1))
	require.NoError(t, afero.WriteFile(fs, "/data/.tmp-partial", []byte("x"), 0o644))

	var keys []string
	require.NoError(t, l.Walk(ctx, func(key string) error {
		keys = append(keys, key)

		return nil
	}))
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, l.Delete(ctx, "a"))
	_, err := l.Stat(ctx, "a")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestNewByConfig(t *testing.T) {
	s, err := blob.New(blob.Deps{
		Config: &configs.StorageConfig{Type: configs.StorageLocal, LocalRoot: "/srv"},
		Fs:     afero.NewMemMapFs(),
	})
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name())

	_, err = blob.New(blob.Deps{Config: &configs.StorageConfig{Type: configs.StorageS3}})
	assert.Error(t, err)

	assert.Contains(t, blob.GetRegisteredTypes(), configs.StorageS3)
}
