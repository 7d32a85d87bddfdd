// Package audio 实现音频入库流水线以及音频记录的查询、修改与流式读取.
package audio

import (
	"context"
	"errors"
	"io"

	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
)

// Service 音频记录的读写，所有修改都校验所有者.
type Service struct {
	Store Store
	Gate  *Gate
	Blob  blob.Strategy
}

// UpdateInput 可修改字段，nil 表示不修改.
type UpdateInput struct {
	URL          *string `json:"url"`
	Visible      *bool   `json:"visible"`
	OriginalName *string `json:"originalName"`
}

// List 列出用户未删除的音频.
func (s *Service) List(ctx context.Context, user *model.User) ([]model.Audio, error) {
	return s.Store.ListByUser(ctx, user.ID)
}

func (s *Service) owned(ctx context.Context, user *model.User, id uint) (*model.Audio, error) {
	a, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if user == nil || a.UserID != user.ID {
		return nil, ErrForbidden
	}

	return a, nil
}

// Update 修改地址、可见性或显示名称. 新地址被占用时返回 URL_NOT_UNIQUE.
func (s *Service) Update(ctx context.Context, user *model.User, id uint, in UpdateInput) (*model.Audio, error) {
	a, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	if in.URL != nil && *in.URL != a.URL {
		slug := Slugify(*in.URL)
		if slug == "" || slug != *in.URL {
			return nil, &Error{Kind: KindInvalidURL}
		}

		if err := s.Gate.CheckSlug(ctx, slug, a.ID); err != nil {
			return nil, err
		}

		fields["url"] = slug
	}

	if in.Visible != nil {
		fields["visible"] = *in.Visible
	}

	if in.OriginalName != nil {
		fields["original_name"] = *in.OriginalName
	}

	updated, err := s.Store.Update(ctx, a.ID, fields)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, newError(KindPersistenceFault, err)
	}

	return updated, err
}

// Delete 软删除，存储对象由定时清理任务回收.
func (s *Service) Delete(ctx context.Context, user *model.User, id uint) error {
	a, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}

	return s.Store.Delete(ctx, a.ID)
}

// Find 按子域名用户与地址查找. 不可见的音频只对所有者可见，其余情况一律 ErrNotFound.
func (s *Service) Find(ctx context.Context, viewer *model.User, username, slug string) (*model.Audio, error) {
	a, err := s.Store.FindByUserSlug(ctx, username, slug)
	if err != nil {
		return nil, err
	}

	if !a.Visible && (viewer == nil || viewer.ID != a.UserID) {
		return nil, ErrNotFound
	}

	return a, nil
}

// OpenStream 打开音频字节流，调用方负责关闭.
func (s *Service) OpenStream(ctx context.Context, a *model.Audio, download bool) (io.ReadCloser, error) {
	rc, err := s.Blob.Read(ctx, a.Hash, blob.ReadOptions{AsAttachment: download, Filename: a.OriginalName})
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, newError(KindStorageFault, err)
	}

	return rc, nil
}
