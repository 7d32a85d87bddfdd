package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/soundvault/pkg/configs"
)

// GroupcacheKV 本地数据作为权威来源，groupcache 负责从对等节点读取.
// groupcache 组不可删除，Delete 之后对等节点的缓存副本可能短暂残留.
type GroupcacheKV struct {
	cache *groupcache.Group
	data  map[string][]byte
	mu    sync.RWMutex
	now   func() time.Time
}

type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	val, err := g.kv.local(key)
	if err != nil {
		return err
	}

	if err := dest.SetBytes(val); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

var (
	peersOnce sync.Once
	peerPool  *groupcache.HTTPPool
)

// NewGroupcacheKV 创建 Groupcache KV 实例，同名组只能在进程内创建一次.
func NewGroupcacheKV(_ context.Context, cfg *configs.KVConfig) (KVStore, error) {
	gc := cfg.Groupcache
	if groupcache.GetGroup(gc.Name) != nil {
		return nil, fmt.Errorf("groupcache group %q already exists", gc.Name)
	}

	kv := &GroupcacheKV{data: make(map[string][]byte), now: time.Now}
	kv.cache = groupcache.NewGroup(gc.Name, gc.CacheBytes, &groupcacheGetter{kv: kv})

	if len(gc.Peers) > 0 {
		peersOnce.Do(func() {
			peerPool = groupcache.NewHTTPPoolOpts(gc.Self, &groupcache.HTTPPoolOptions{})
		})
		peerPool.Set(gc.Peers...)
	}

	return kv, nil
}

func (g *GroupcacheKV) local(key string) ([]byte, error) {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	val, expired, err := decodeWithTTL(raw, g.now())
	if err != nil {
		return nil, err
	}

	if expired {
		g.mu.Lock()
		delete(g.data, key)
		g.mu.Unlock()

		return nil, ErrNotFound
	}

	return val, nil
}

// Get 优先读本地数据，本地缺失时经 groupcache 向对等节点查询.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := g.local(key)
	if err == nil {
		out := make([]byte, len(val))
		copy(out, val)

		return out, nil
	}

	if err != ErrNotFound || peerPool == nil {
		return nil, err
	}

	var data []byte
	if err := g.cache.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, ErrNotFound
	}

	return data, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	enc, err := encodeWithTTL(data, ttl, g.now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = enc
	g.mu.Unlock()

	return nil
}

// Delete 删除本地键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查本地键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := g.local(key)
	if err == ErrNotFound {
		return false, nil
	}

	return err == nil, err
}

// Keys 获取本地匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := g.now()
	keys := make([]string, 0, len(g.data))

	for key, raw := range g.data {
		if !matchKey(pattern, key) {
			continue
		}

		if _, expired, err := decodeWithTTL(raw, now); err == nil && expired {
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// Close groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeGroupcache, NewGroupcacheKV)
}
