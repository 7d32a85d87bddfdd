package audio_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/model"
)

func ptr[T any](v T) *T { return &v }

func newService(f *fixture) *audio.Service {
	return &audio.Service{Store: f.store, Gate: f.ingestor.Gate, Blob: f.blob}
}

func (f *fixture) otherUser(t *testing.T) *model.User {
	t.Helper()

	u := &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.DB().Create(u).Error)

	return u
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newService(f)

	a, err := f.ingestor.Ingest(ctx, f.user, f.upload(t, "chicken.mp3", chickenBytes()))
	require.NoError(t, err)
	b, err := f.ingestor.Ingest(ctx, f.user, f.upload(t, "rooster.mp3", []byte("rooster")))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, f.user, a.ID, audio.UpdateInput{
		URL:          ptr("hen.mp3"),
		Visible:      ptr(false),
		OriginalName: ptr("Hen"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hen.mp3", updated.URL)
	assert.False(t, updated.Visible)
	assert.Equal(t, "Hen", updated.OriginalName)
	assert.Equal(t, a.Hash, updated.Hash)

	_, err = svc.Update(ctx, f.user, b.ID, audio.UpdateInput{URL: ptr("hen.mp3")})
	assert.Equal(t, audio.KindUrlNotUnique, kindOf(t, err))

	_, err = svc.Update(ctx, f.user, b.ID, audio.UpdateInput{URL: ptr("Not A Slug")})
	assert.Equal(t, audio.KindInvalidURL, kindOf(t, err))

	// 改回自己当前的地址不算冲突
	same, err := svc.Update(ctx, f.user, b.ID, audio.UpdateInput{URL: ptr("rooster.mp3")})
	require.NoError(t, err)
	assert.Equal(t, "rooster.mp3", same.URL)
}

func TestServiceOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newService(f)
	bob := f.otherUser(t)

	a, err := f.ingestor.Ingest(ctx, f.user, f.upload(t, "chicken.mp3", chickenBytes()))
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, a.ID, audio.UpdateInput{Visible: ptr(false)})
	assert.ErrorIs(t, err, audio.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, bob, a.ID), audio.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, f.user, 999), audio.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, f.user, a.ID))

	list, err := svc.List(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Find(ctx, f.user, "alice", "chicken.mp3")
	assert.ErrorIs(t, err, audio.ErrNotFound)

	// 软删除后地址可以复用
	again, err := f.ingestor.Ingest(ctx, f.user, f.upload(t, "chicken.mp3", chickenBytes()))
	require.NoError(t, err)
	assert.Equal(t, a.Hash, again.Hash)
}

func TestServiceFindAndStream(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newService(f)
	bob := f.otherUser(t)
	data := chickenBytes()

	a, err := f.ingestor.Ingest(ctx, f.user, f.upload(t, "chicken.mp3", data))
	require.NoError(t, err)

	found, err := svc.Find(ctx, nil, "alice", "chicken.mp3")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	_, err = svc.Find(ctx, nil, "bob", "chicken.mp3")
	assert.ErrorIs(t, err, audio.ErrNotFound)

	_, err = svc.Update(ctx, f.user, a.ID, audio.UpdateInput{Visible: ptr(false)})
	require.NoError(t, err)

	_, err = svc.Find(ctx, nil, "alice", "chicken.mp3")
	assert.ErrorIs(t, err, audio.ErrNotFound)
	_, err = svc.Find(ctx, bob, "alice", "chicken.mp3")
	assert.ErrorIs(t, err, audio.ErrNotFound)

	own, err := svc.Find(ctx, f.user, "alice", "chicken.mp3")
	require.NoError(t, err)

	rc, err := svc.OpenStream(ctx, own, true)
	require.NoError(t, err)

	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, f.blob.Delete(ctx, a.Hash))
	_, err = svc.OpenStream(ctx, own, false)
	assert.ErrorIs(t, err, audio.ErrNotFound)
}
