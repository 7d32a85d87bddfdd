// Package storage 聚合所有存储资源：数据库、对象存储、音频存储策略、消息队列与 KV.
//
// Example:
//
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	rc, err := mgr.Blob.Read(ctx, hash, blob.ReadOptions{})
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/soundvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/soundvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/soundvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/soundvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/soundvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	S3   *s3c.Client // 仅 storage.type=s3 时初始化
	Blob blob.Strategy
	MQ   *mqc.Client
	KV   *kvc.Client
	Fs   afero.Fs
}

// Init 按配置初始化全部存储资源并迁移表结构，任一失败时关闭已打开的资源.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{Fs: afero.NewOsFs()}

	fail := func(err error) (*Manager, error) {
		_ = m.Close()

		return nil, err
	}

	var err error

	if m.DB, err = dbc.New(ctx, &cfg.DB, cfg.Metrics.Enabled); err != nil {
		return fail(err)
	}

	if err := m.DB.Migrate(ctx); err != nil {
		return fail(err)
	}

	if cfg.Storage.Type == configs.StorageS3 {
		if m.S3, err = s3c.New(ctx, &cfg.S3); err != nil {
			return fail(err)
		}
	}

	if m.Blob, err = blob.New(blob.Deps{Config: &cfg.Storage, Fs: m.Fs, S3: m.S3}); err != nil {
		return fail(fmt.Errorf("init blob storage: %w", err))
	}

	if m.MQ, err = mqc.New(ctx, &cfg.MQ, cfg.Metrics.Enabled); err != nil {
		return fail(err)
	}

	if m.KV, err = kvc.New(ctx, &cfg.KV); err != nil {
		return fail(fmt.Errorf("init kv: %w", err))
	}

	nlog.Logger().Info().
		Str("blob", m.Blob.Name()).
		Str("mq", string(m.MQ.Type())).
		Str("kv", string(m.KV.Type())).
		Msg("storage manager initialized")

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client { return m.DB }

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client { return m.S3 }

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client { return m.MQ }

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client { return m.KV }

// GetBlob 获取音频存储策略.
func (m *Manager) GetBlob() blob.Strategy { return m.Blob }

// HealthCheckStorage 检查音频存储可用性.
func (m *Manager) HealthCheckStorage(ctx context.Context) error {
	if m.S3 != nil {
		return m.S3.HealthCheck(ctx)
	}

	if m.Blob == nil {
		return errors.New("blob storage not initialized")
	}

	err := m.Blob.Walk(ctx, func(string) error { return errStopWalk })
	if errors.Is(err, errStopWalk) {
		return nil
	}

	return err
}

var errStopWalk = errors.New("stop")

// Close 关闭全部资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
