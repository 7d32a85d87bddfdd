package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/storage"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/scheduler"
)

// SweepEnqueuer 定时补偿使用的投递接口.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context, audioID uint) error
}

// Maintenance 定时维护任务：补投时长任务与清理无引用对象.
type Maintenance struct {
	Store audio.Store
	Blob  blob.Strategy
	Jobs  SweepEnqueuer
	// Batch 每次补投的最大数量.
	Batch int
	// Retention 软删除记录在该时长内仍视为引用其对象.
	Retention time.Duration
	// Grace 修改时间晚于 now-Grace 的对象不删除，<=0 时使用 DefaultPurgeGrace.
	Grace time.Duration
	Now   func() time.Time
}

// DefaultPurgeGrace 未配置时的清理宽限期.
const DefaultPurgeGrace = time.Hour

// RegisterCronJobs 配置业务定时任务：
//   - jobs.sweep_cron：为 duration 为空的音频重新投递时长任务
//   - jobs.purge_cron：删除不再被任何记录引用的存储对象
//
// cron 表达式为空时跳过对应任务.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.JobsConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil || mgr.GetDBClient() == nil || mgr.GetMQClient() == nil {
		return fmt.Errorf("storage manager is not initialized")
	}

	m := &Maintenance{
		Store:     audio.NewGormStore(mgr.GetDBClient().GetDB()),
		Blob:      mgr.GetBlob(),
		Jobs:      NewEnqueuer(mgr.GetMQClient().Publisher()),
		Batch:     cfg.SweepBatch,
		Retention: cfg.PurgeRetention,
		Grace:     cfg.PurgeGrace,
	}

	// 将 storage manager 注入到 context，便于任务内部取用
	baseCtx := ctxPkg.WithStorageManager(ctx, mgr)

	if cfg.SweepCron != "" {
		if err := sched.AddCron(baseCtx, JobDurationSweep, cfg.SweepCron, func(ctx context.Context) error {
			_, err := m.Sweep(ctx)

			return err
		}); err != nil {
			return err
		}
	}

	if cfg.PurgeCron != "" {
		if err := sched.AddCron(baseCtx, JobBlobPurge, cfg.PurgeCron, func(ctx context.Context) error {
			_, err := m.Purge(ctx)

			return err
		}); err != nil {
			return err
		}
	}

	return nil
}

// Sweep 为尚未探测时长的音频重新投递任务，返回投递数量.
func (m *Maintenance) Sweep(ctx context.Context) (int, error) {
	l := log.Logger().With().Str("job", JobDurationSweep).Logger()

	batch := m.Batch
	if batch <= 0 {
		batch = 100
	}

	idList, err := m.Store.ListMissingDuration(ctx, batch)
	if err != nil {
		return 0, err
	}

	var (
		sent int
		errs []error
	)

	for _, id := range idList {
		if err := m.Jobs.EnqueueSweep(ctx, id); err != nil {
			l.Error().Err(err).Uint("audio_id", id).Msg("re-enqueue failed")
			errs = append(errs, err)

			continue
		}

		sent++
	}

	if sent > 0 {
		l.Info().Int("enqueued", sent).Msg("re-enqueued duration jobs")
	}

	return sent, errors.Join(errs...)
}

// Purge 删除没有任何记录引用的对象，返回删除数量.
// 入库流程先写对象再落库，两步之间对象没有记录引用，所以宽限期内修改过的对象一律保留.
// 已存在对象被再次写入时会刷新修改时间. 遍历结束后再次查询引用.
func (m *Maintenance) Purge(ctx context.Context) (int, error) {
	l := log.Logger().With().Str("job", JobBlobPurge).Logger()
	cutoff := m.now().Add(-m.Retention)

	referenced, err := m.Store.ReferencedHashes(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var candidates []string

	err = m.Blob.Walk(ctx, func(key string) error {
		if _, ok := referenced[key]; !ok {
			candidates = append(candidates, key)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s storage: %w", m.Blob.Name(), err)
	}

	if len(candidates) == 0 {
		return 0, nil
	}

	referenced, err = m.Store.ReferencedHashes(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	return m.deleteUnreferenced(ctx, &l, candidates, referenced)
}

func (m *Maintenance) deleteUnreferenced(
	ctx context.Context, l *zerolog.Logger, candidates []string, referenced map[string]struct{},
) (int, error) {
	var (
		deleted int
		errs    []error
	)

	fresh := m.now().Add(-m.grace())

	for _, key := range candidates {
		if _, ok := referenced[key]; ok {
			continue
		}

		info, err := m.Blob.Stat(ctx, key)
		if err != nil {
			if !errors.Is(err, blob.ErrNotFound) {
				l.Error().Err(err).Str("key", key).Msg("stat orphaned object failed")
				errs = append(errs, err)
			}

			continue
		}

		if info.ModTime.After(fresh) {
			l.Debug().Str("key", key).Time("mod_time", info.ModTime).Msg("object within grace period, kept")

			continue
		}

		if err := m.Blob.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
			l.Error().Err(err).Str("key", key).Msg("delete orphaned object failed")
			errs = append(errs, err)

			continue
		}

		deleted++
	}

	if deleted > 0 {
		l.Info().Int("deleted", deleted).Time("cutoff", m.now().Add(-m.Retention)).Msg("purged orphaned objects")
	}

	return deleted, errors.Join(errs...)
}

func (m *Maintenance) grace() time.Duration {
	if m.Grace > 0 {
		return m.Grace
	}

	return DefaultPurgeGrace
}

func (m *Maintenance) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}

	return time.Now()
}
