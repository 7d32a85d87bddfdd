package jobs_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/jobs"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	"github.com/yeisme/soundvault/pkg/queue"
)

type sweepRecorder struct {
	ids []uint
}

func (s *sweepRecorder) EnqueueSweep(_ context.Context, id uint) error {
	s.ids = append(s.ids, id)

	return nil
}

func TestSweepEnqueuesMissingDurations(t *testing.T) {
	f := newJobFixture(t)
	pending := f.addAudio(t, "aaaa", "pending.mp3")
	done := f.addAudio(t, "bbbb", "done.mp3")
	require.NoError(t, f.store.SetDuration(context.Background(), done.ID, 3.5))

	rec := &sweepRecorder{}
	m := &jobs.Maintenance{Store: f.store, Blob: f.blob, Jobs: rec, Batch: 10}

	n, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint{pending.ID}, rec.ids)
}

// age 把对象的修改时间拨回到 at.
func (f *jobFixture) age(t *testing.T, key string, at time.Time) {
	t.Helper()

	require.NoError(t, f.fs.Chtimes("/store/"+key, at, at))
}

func (f *jobFixture) keys(t *testing.T) []string {
	t.Helper()

	var keys []string
	require.NoError(t, f.blob.Walk(context.Background(), func(key string) error {
		keys = append(keys, key)

		return nil
	}))
	sort.Strings(keys)

	return keys
}

func TestPurgeRemovesUnreferencedObjects(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	now := time.Now()
	longAgo := now.Add(-90 * 24 * time.Hour)

	f.addAudio(t, "live", "live.mp3")
	recent := f.addAudio(t, "recent", "recent.mp3")
	old := f.addAudio(t, "old", "old.mp3")
	require.NoError(t, f.blob.Write(ctx, "orphan", bytesReader("x"), 1))

	for _, key := range []string{"live", "recent", "old", "orphan"} {
		f.age(t, key, longAgo)
	}

	db := f.store.DB()
	require.NoError(t, db.Unscoped().Model(&model.Audio{}).Where("id = ?", recent.ID).
		Update("deleted_at", now.Add(-time.Hour)).Error)
	require.NoError(t, db.Unscoped().Model(&model.Audio{}).Where("id = ?", old.ID).
		Update("deleted_at", now.Add(-60*24*time.Hour)).Error)

	m := &jobs.Maintenance{
		Store:     f.store,
		Blob:      f.blob,
		Retention: 30 * 24 * time.Hour,
		Grace:     24 * time.Hour,
		Now:       func() time.Time { return now },
	}

	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"live", "recent"}, f.keys(t))
}

func TestPurgeKeepsObjectsWithinGrace(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	require.NoError(t, f.blob.Write(ctx, "fresh", bytesReader("x"), 1))
	require.NoError(t, f.blob.Write(ctx, "stale", bytesReader("y"), 1))
	f.age(t, "stale", time.Now().Add(-2*time.Hour))

	m := &jobs.Maintenance{Store: f.store, Blob: f.blob}

	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"fresh"}, f.keys(t))
}

// purgeBeforeCreate 在落库前触发一次清理，对应对象已写入存储但记录尚未创建的时刻.
type purgeBeforeCreate struct {
	audio.Store

	maintenance *jobs.Maintenance
	purged      int
}

func (s *purgeBeforeCreate) Create(ctx context.Context, a *model.Audio) error {
	n, err := s.maintenance.Purge(ctx)
	if err != nil {
		return err
	}

	s.purged += n

	return s.Store.Create(ctx, a)
}

func TestPurgeDuringIngestKeepsStoredObject(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	data := []byte("freshly uploaded bytes")
	require.NoError(t, afero.WriteFile(f.fs, "/tmp/uploads/race", data, 0o644))

	store := &purgeBeforeCreate{
		Store:       f.store,
		maintenance: &jobs.Maintenance{Store: f.store, Blob: f.blob, Grace: time.Hour},
	}
	ing := &audio.Ingestor{
		Fs:    f.fs,
		Gate:  &audio.Gate{MaxSize: 1 << 20, AllowedMimetypes: []string{"audio/mpeg"}, Slugs: f.store},
		Store: store,
		Blob:  f.blob,
	}

	a, err := ing.Ingest(ctx, f.user, &audio.Upload{
		Path:         "/tmp/uploads/race",
		OriginalName: "race.mp3",
		Mimetype:     "audio/mpeg",
		Size:         int64(len(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.purged)

	rc, err := f.blob.Read(ctx, a.Hash, blob.ReadOptions{})
	require.NoError(t, err)

	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPurgeKeepsObjectRewrittenAfterExpiry(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	now := time.Now()

	old := f.addAudio(t, "old", "old.mp3")
	f.age(t, "old", now.Add(-90*24*time.Hour))
	require.NoError(t, f.store.DB().Unscoped().Model(&model.Audio{}).Where("id = ?", old.ID).
		Update("deleted_at", now.Add(-60*24*time.Hour)).Error)

	// 同样的字节再次上传，写入命中已存在对象.
	require.NoError(t, f.blob.Write(ctx, "old", bytesReader("audio-bytes-old"), 15))

	m := &jobs.Maintenance{Store: f.store, Blob: f.blob, Retention: 30 * 24 * time.Hour, Grace: time.Hour}

	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []string{"old"}, f.keys(t))
}

func TestEnqueuerPublishesRequest(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msgs, err := pubsub.Subscribe(ctx, queue.TopicAudioDurationRequested)
	require.NoError(t, err)

	enq := jobs.NewEnqueuer(pubsub)
	require.NoError(t, enq.EnqueueDuration(ctx, 7))
	require.NoError(t, enq.EnqueueSweep(ctx, 8))

	want := []queue.AudioDurationRequestedPayload{
		{AudioID: 7, Reason: queue.ReasonIngest},
		{AudioID: 8, Reason: queue.ReasonSweep},
	}

	for _, w := range want {
		select {
		case msg := <-msgs:
			env, err := queue.ParseAudioDurationRequested(msg)
			require.NoError(t, err)
			assert.Equal(t, w, env.Payload)
			msg.Ack()
		case <-time.After(5 * time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func bytesReader(s string) *strings.Reader { return strings.NewReader(s) }
