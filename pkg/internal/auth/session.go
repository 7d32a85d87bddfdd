package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/yeisme/soundvault/pkg/cache"
	"github.com/yeisme/soundvault/pkg/internal/storage/kv"
)

// ErrNoSession 会话不存在或已过期.
var ErrNoSession = errors.New("auth: no session")

// session 保存在 KV 中的会话数据.
type session struct {
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
}

// Sessions 基于 KV 的会话存储. 令牌只出现在 cookie 中，KV 键是令牌的 xxhash.
type Sessions struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessions 创建会话存储.
func NewSessions(store kv.KVStore, ttl time.Duration) *Sessions {
	return &Sessions{cache: cache.NewCache(store, "session_"), ttl: ttl}
}

// sessionKey 令牌到 KV 键的映射.
func sessionKey(token string) string {
	return strconv.FormatUint(xxhash.Sum64String(token), 16)
}

// Create 为身份创建会话，返回令牌.
func (s *Sessions) Create(ctx context.Context, identity string) (string, error) {
	token := uuid.NewString()

	if err := cache.Set(ctx, s.cache, sessionKey(token), session{Identity: identity, CreatedAt: time.Now().UTC()}, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// Lookup 返回令牌对应的身份.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}

	sess, err := cache.Get[session](ctx, s.cache, sessionKey(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrNoSession
		}

		return "", fmt.Errorf("load session: %w", err)
	}

	return sess.Identity, nil
}

// Destroy 删除会话，不存在时不报错.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	return s.cache.Delete(ctx, sessionKey(token))
}

// TTL 会话有效期.
func (s *Sessions) TTL() time.Duration { return s.ttl }
