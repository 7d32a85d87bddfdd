package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/jobs"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	"github.com/yeisme/soundvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/soundvault/pkg/queue"
)

const scratchDir = "/tmp/downloads"

type fakeProber struct {
	fs     afero.Fs
	result string
	err    error

	paths   []string
	existed []bool
}

func (p *fakeProber) Probe(_ context.Context, path string) (*jobs.ProbeResult, error) {
	ok, _ := afero.Exists(p.fs, path)
	p.paths = append(p.paths, path)
	p.existed = append(p.existed, ok)

	if p.err != nil {
		return nil, p.err
	}

	return jobs.ParseProbeOutput([]byte(p.result))
}

type jobFixture struct {
	fs     afero.Fs
	store  *audio.GormStore
	blob   *blob.Local
	prober *fakeProber
	logs   *bytes.Buffer
	job    *jobs.DurationJob
	user   *model.User
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	client := dbtest.New(t)
	fs := afero.NewMemMapFs()

	local, err := blob.NewLocal(fs, "/store")
	require.NoError(t, err)

	user := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, client.Create(user).Error)

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	prober := &fakeProber{fs: fs}
	store := audio.NewGormStore(client.DB)

	return &jobFixture{
		fs:     fs,
		store:  store,
		blob:   local,
		prober: prober,
		logs:   logs,
		user:   user,
		job: &jobs.DurationJob{
			Store:      store,
			Blob:       local,
			Fs:         fs,
			ScratchDir: scratchDir,
			Prober:     prober,
			Logger:     &logger,
		},
	}
}

func (f *jobFixture) addAudio(t *testing.T, hash, slug string) *model.Audio {
	t.Helper()

	data := []byte("audio-bytes-" + hash)
	require.NoError(t, f.blob.Write(context.Background(), hash, bytes.NewReader(data), int64(len(data))))

	a := &model.Audio{
		UserID:       f.user.ID,
		Hash:         hash,
		OriginalName: slug,
		URL:          slug,
		Mimetype:     "audio/mpeg",
		Size:         int64(len(data)),
		Visible:      true,
	}
	require.NoError(t, f.store.Create(context.Background(), a))

	return a
}

func (f *jobFixture) assertScratchEmpty(t *testing.T) {
	t.Helper()

	entries, err := afero.ReadDir(f.fs, scratchDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestDurationJobSetsDuration(t *testing.T) {
	f := newJobFixture(t)
	a := f.addAudio(t, "aaaa", "chicken.mp3")
	f.prober.result = `{"format":{"duration":250}}`

	require.NoError(t, f.job.Process(context.Background(), a.ID, 1))

	got, err := f.store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Duration)
	assert.InDelta(t, 250.0, *got.Duration, 0)

	assert.Contains(t, f.logs.String(), "Setting audio.duration to 250")
	assert.Contains(t, f.logs.String(), `"job":"audio.duration"`)
	assert.Contains(t, f.logs.String(), fmt.Sprintf(`"audio_id":%d,"attempt":1`, a.ID))

	require.Len(t, f.prober.paths, 1)
	assert.True(t, f.prober.existed[0])
	assert.True(t, strings.HasPrefix(f.prober.paths[0], scratchDir+"/"))
	f.assertScratchEmpty(t)
}

func TestDurationJobMissingDuration(t *testing.T) {
	f := newJobFixture(t)
	a := f.addAudio(t, "bbbb", "empty.mp3")
	f.prober.result = `{}`

	err := f.job.Process(context.Background(), a.ID, 1)
	require.Error(t, err)
	assert.EqualError(t, err, "`ffData.format.duration` does not exist.")
	assert.False(t, jobs.IsFatal(err))

	got, err := f.store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Duration)
	f.assertScratchEmpty(t)
}

func TestDurationJobNoSuchAudio(t *testing.T) {
	f := newJobFixture(t)

	err := f.job.Process(context.Background(), 100, 1)
	require.Error(t, err)
	assert.EqualError(t, err, "no such audio 100")
	assert.True(t, jobs.IsFatal(err))
	assert.True(t, errors.Is(err, jobs.ErrFatal))
	assert.Empty(t, f.prober.paths)
}

func TestDurationJobProbeFailureIsRetryable(t *testing.T) {
	f := newJobFixture(t)
	a := f.addAudio(t, "cccc", "broken.mp3")
	f.prober.err = errors.New("ffprobe exited with 1")

	err := f.job.Process(context.Background(), a.ID, 2)
	require.Error(t, err)
	assert.False(t, jobs.IsFatal(err))
	assert.Contains(t, err.Error(), "ffprobe exited with 1")
	f.assertScratchEmpty(t)
}

func TestDurationJobMissingBlob(t *testing.T) {
	f := newJobFixture(t)
	a := f.addAudio(t, "dddd", "gone.mp3")
	require.NoError(t, f.blob.Delete(context.Background(), "dddd"))

	err := f.job.Process(context.Background(), a.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, blob.ErrNotFound)
	assert.Empty(t, f.prober.paths)
	f.assertScratchEmpty(t)
}

func TestDurationJobHandleCountsAttempts(t *testing.T) {
	f := newJobFixture(t)

	msg, err := queue.NewWatermillMessage(queue.TopicAudioDurationRequested,
		queue.AudioDurationRequestedPayload{AudioID: 100, Reason: queue.ReasonIngest})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err := f.job.Handle(msg)
		assert.True(t, jobs.IsFatal(err))
	}

	assert.Equal(t, "2", msg.Metadata.Get("sv_attempt"))
	assert.Contains(t, f.logs.String(), `"attempt":2`)
}

func TestProbeResultDuration(t *testing.T) {
	cases := map[string]struct {
		out  string
		want float64
		ok   bool
	}{
		"number":         {out: `{"format":{"duration":250}}`, want: 250, ok: true},
		"numeric string": {out: `{"format":{"duration":"12.5"}}`, want: 12.5, ok: true},
		"empty object":   {out: `{}`},
		"bad string":     {out: `{"format":{"duration":"N/A"}}`},
		"empty output":   {out: ``},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := jobs.ParseProbeOutput([]byte(tc.out))
			require.NoError(t, err)

			got, ok := res.Duration()
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}
