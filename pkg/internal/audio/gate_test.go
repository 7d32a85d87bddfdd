package audio_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/audio"
)

type fakeSlugs struct {
	taken map[string]bool
	err   error
}

func (f fakeSlugs) SlugTaken(_ context.Context, slug string, _ uint) (bool, error) {
	return f.taken[slug], f.err
}

func newGate(slugs audio.SlugChecker) *audio.Gate {
	return &audio.Gate{
		MaxSize:          configs.DefaultAudioMaxSize,
		AllowedMimetypes: configs.DefaultAllowedMimetypes,
		Slugs:            slugs,
	}
}

func kindOf(t *testing.T, err error) audio.Kind {
	t.Helper()

	e, ok := audio.AsError(err)
	require.True(t, ok, "expected *audio.Error, got %v", err)

	return e.Kind
}

func TestGateOrder(t *testing.T) {
	ctx := context.Background()
	g := newGate(fakeSlugs{taken: map[string]bool{"chicken.mp3": true}})

	assert.Equal(t, audio.KindNoFile, kindOf(t, g.Check(ctx, nil, "")))
	assert.Equal(t, audio.KindNoFile, kindOf(t, g.Check(ctx, &audio.Upload{}, "")))

	// 大小优先于类型
	err := g.Check(ctx, &audio.Upload{Path: "/tmp/x", Mimetype: "text/html", Size: 99999999}, "chicken.mp3")
	e, _ := audio.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, audio.KindFileTooLarge, e.Kind)
	assert.Equal(t, int64(20971520), e.MaxSize)

	// 类型优先于地址
	err = g.Check(ctx, &audio.Upload{Path: "/tmp/x", Mimetype: "text/html", Size: 10}, "chicken.mp3")
	e, _ = audio.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, audio.KindBadMimetype, e.Kind)
	assert.Equal(t, configs.DefaultAllowedMimetypes, e.AllowedMimetypes)

	err = g.Check(ctx, &audio.Upload{Path: "/tmp/x", Mimetype: "audio/mpeg", Size: 7971}, "chicken.mp3")
	assert.Equal(t, audio.KindUrlNotUnique, kindOf(t, err))

	assert.NoError(t, g.Check(ctx, &audio.Upload{Path: "/tmp/x", Mimetype: "audio/mpeg", Size: 7971}, "rooster.mp3"))
	assert.NoError(t, g.Check(ctx, &audio.Upload{Path: "/tmp/x", Mimetype: "Audio/MPEG; rate=44100", Size: 1}, ""))
}

func TestGateSlugLookupFailure(t *testing.T) {
	g := newGate(fakeSlugs{err: errors.New("db down")})

	err := g.Check(context.Background(), &audio.Upload{Path: "/x", Mimetype: "audio/mpeg", Size: 1}, "a.mp3")
	assert.Equal(t, audio.KindPersistenceFault, kindOf(t, err))
	assert.ErrorContains(t, err, "db down")
}

func TestErrorJSON(t *testing.T) {
	b, err := json.Marshal(&audio.Error{Kind: audio.KindFileTooLarge, MaxSize: 20971520})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"FILE_TOO_LARGE","maxSize":20971520}`, string(b))

	b, err = json.Marshal(&audio.Error{Kind: audio.KindBadMimetype, AllowedMimetypes: []string{"audio/mpeg"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"BAD_MIMETYPE","allowedMimetypes":["audio/mpeg"]}`, string(b))

	b, err = json.Marshal(&audio.Error{Kind: audio.KindStorageFault, Err: errors.New("secret path")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"STORAGE_FAULT"}`, string(b))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, (&audio.Error{Kind: audio.KindUrlNotUnique}).IsValidation())
	assert.True(t, audio.ErrForbidden.IsValidation())
	assert.False(t, (&audio.Error{Kind: audio.KindHashFault}).IsValidation())
	assert.ErrorIs(t, &audio.Error{Kind: audio.KindNotOwner}, audio.ErrForbidden)
	assert.NotErrorIs(t, &audio.Error{Kind: audio.KindNoFile}, audio.ErrForbidden)
}
