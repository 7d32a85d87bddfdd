package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// Store 音频记录的持久化. 所有读取只看未软删除的记录.
type Store interface {
	SlugChecker
	Create(ctx context.Context, a *model.Audio) error
	Get(ctx context.Context, id uint) (*model.Audio, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Audio, error)
	FindByUserSlug(ctx context.Context, username, slug string) (*model.Audio, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*model.Audio, error)
	Delete(ctx context.Context, id uint) error
	SetDuration(ctx context.Context, id uint, duration float64) error
	ListMissingDuration(ctx context.Context, limit int) ([]uint, error)
	// ReferencedHashes 返回仍被引用的哈希：未删除的记录，以及删除时间晚于 cutoff 的记录.
	ReferencedHashes(ctx context.Context, cutoff time.Time) (map[string]struct{}, error)
}

// GormStore 基于 GORM 的实现.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建存储.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB 返回底层连接.
func (s *GormStore) DB() *gorm.DB { return s.db }

// SlugTaken 地址是否被其他未删除记录占用.
func (s *GormStore) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var count int64

	q := s.db.WithContext(ctx).Model(&model.Audio{}).Where("url = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("count audios by url: %w", err)
	}

	return count > 0, nil
}

// Create 插入记录.
func (s *GormStore) Create(ctx context.Context, a *model.Audio) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create audio: %w", err)
	}

	return nil
}

// Get 按 ID 读取.
func (s *GormStore) Get(ctx context.Context, id uint) (*model.Audio, error) {
	var a model.Audio
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get audio %d: %w", id, err)
	}

	return &a, nil
}

// ListByUser 列出用户的音频，按创建时间倒序.
func (s *GormStore) ListByUser(ctx context.Context, userID uint) ([]model.Audio, error) {
	records := make([]model.Audio, 0)
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list audios: %w", err)
	}

	return records, nil
}

// FindByUserSlug 按用户名与地址查找.
func (s *GormStore) FindByUserSlug(ctx context.Context, username, slug string) (*model.Audio, error) {
	var a model.Audio

	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = audios.user_id AND users.deleted_at IS NULL").
		Where("users.username = ? AND audios.url = ?", username, slug).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("find audio %s/%s: %w", username, slug, err)
	}

	return &a, nil
}

// Update 只更新给定列，hash 与 size 不在可更新范围内.
func (s *GormStore) Update(ctx context.Context, id uint, fields map[string]any) (*model.Audio, error) {
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Audio{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("update audio %d: %w", id, res.Error)
		}
	}

	return s.Get(ctx, id)
}

// Delete 软删除.
func (s *GormStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Audio{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete audio %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetDuration 写入时长，重复写入同一值是幂等的.
func (s *GormStore) SetDuration(ctx context.Context, id uint, duration float64) error {
	res := s.db.WithContext(ctx).Model(&model.Audio{ID: id}).Update("duration", duration)
	if res.Error != nil {
		return fmt.Errorf("set duration of audio %d: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListMissingDuration 返回尚未探测时长的记录 ID.
func (s *GormStore) ListMissingDuration(ctx context.Context, limit int) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&model.Audio{}).
		Where("duration IS NULL").
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list audios without duration: %w", err)
	}

	return ids, nil
}

// ReferencedHashes 见 Store.
func (s *GormStore) ReferencedHashes(ctx context.Context, cutoff time.Time) (map[string]struct{}, error) {
	var hashes []string
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.Audio{}).
		Where("deleted_at IS NULL OR deleted_at > ?", cutoff).
		Distinct().
		Pluck("hash", &hashes).Error; err != nil {
		return nil, fmt.Errorf("list referenced hashes: %w", err)
	}

	out := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		out[h] = struct{}{}
	}

	return out, nil
}
