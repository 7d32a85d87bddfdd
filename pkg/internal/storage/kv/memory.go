package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/soundvault/pkg/configs"
)

// MemoryKV 单进程内存 KV，开发与测试默认使用.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return &MemoryKV{now: time.Now}, nil
}

// Get 获取键的值，过期的键被惰性删除.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, ErrNotFound
	}

	val, expired, err := decodeWithTTL(v.([]byte), m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.data.Delete(key)

		return nil, ErrNotFound
	}

	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	enc, err := encodeWithTTL(data, ttl, m.now())
	if err != nil {
		return err
	}

	m.data.Store(key, enc)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Get(ctx, key); err != nil {
		if err == ErrNotFound {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Keys 获取匹配的未过期键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := m.now()

	m.data.Range(func(k, v any) bool {
		key, ok := k.(string)
		if !ok || !matchKey(pattern, key) {
			return true
		}

		if _, expired, err := decodeWithTTL(v.([]byte), now); err == nil && expired {
			m.data.Delete(key)

			return true
		}

		keys = append(keys, key)

		return true
	})

	return keys, nil
}

// Close 内存实现无需关闭.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeMemory, NewMemoryKV)
}
