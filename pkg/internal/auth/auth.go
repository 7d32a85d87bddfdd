// Package auth 负责用户名密码校验、会话身份的序列化与反序列化以及基于 KV 的会话存储.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/cache"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/kv"
)

var (
	// ErrInvalidCredentials 用户名不存在或密码错误.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnknownIdentity 会话中的身份已无对应用户.
	ErrUnknownIdentity = errors.New("auth: unknown identity")
)

// Service 无状态的认证服务，启动时构建一次.
type Service struct {
	db       *gorm.DB
	hasher   *Hasher
	users    *cache.Cache
	cacheTTL time.Duration
}

// NewService 创建认证服务. store 为空或 cacheTTL<=0 时不缓存用户.
func NewService(db *gorm.DB, hasher *Hasher, store kv.KVStore, cacheTTL time.Duration) *Service {
	s := &Service{db: db, hasher: hasher, cacheTTL: cacheTTL}
	if store != nil && cacheTTL > 0 {
		s.users = cache.NewCache(store, "user_")
	}

	return s
}

// Hasher 返回密码哈希器.
func (s *Service) Hasher() *Hasher { return s.hasher }

// VerifyCredentials 校验用户名与密码.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("find user %s: %w", username, err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password of %s: %w", username, err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &u, nil
}

// SerializeIdentity 会话中只保存用户 ID.
func (s *Service) SerializeIdentity(u *model.User) string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// DeserializeIdentity 由会话身份加载用户.
func (s *Service) DeserializeIdentity(ctx context.Context, identity string) (*model.User, error) {
	id, err := strconv.ParseUint(identity, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrUnknownIdentity
	}

	load := func() (model.User, error) {
		var u model.User
		if err := s.db.WithContext(ctx).First(&u, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return u, ErrUnknownIdentity
			}

			return u, fmt.Errorf("load user %d: %w", id, err)
		}

		return u, nil
	}

	if s.users == nil {
		u, err := load()
		if err != nil {
			return nil, err
		}

		return &u, nil
	}

	u, err := cache.GetOrSet(ctx, s.users, identity, load, s.cacheTTL)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Forget 使用户缓存失效，用户资料变更后调用.
func (s *Service) Forget(ctx context.Context, userID uint) error {
	if s.users == nil {
		return nil
	}

	return s.users.Delete(ctx, strconv.FormatUint(uint64(userID), 10))
}
