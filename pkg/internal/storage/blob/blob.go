// Package blob 定义音频字节的存储策略.
// 对象以内容哈希为键，写入是幂等的：同样的字节只保存一份.
//
// Example:
//
//	strategy, err := blob.New(blob.Deps{Config: &cfg.Storage, Fs: afero.NewOsFs()})
//	if err != nil {
//		return err
//	}
//
//	rc, err := strategy.Read(ctx, hash, blob.ReadOptions{})
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/soundvault/pkg/configs"
	s3c "github.com/yeisme/soundvault/pkg/internal/storage/s3"
)

// ErrNotFound 键不存在.
var ErrNotFound = errors.New("blob: not found")

// ReadOptions 读取选项，HTTP 层据此决定是否以附件下载.
type ReadOptions struct {
	AsAttachment bool
	Filename     string
}

// Info 对象元信息.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Strategy 音频存储策略.
type Strategy interface {
	// Write 写入对象，键已存在时不做任何事.
	Write(ctx context.Context, key string, r io.Reader, size int64) error
	// Read 打开对象，调用方负责关闭.
	Read(ctx context.Context, key string, opts ReadOptions) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) error
	// Walk 遍历全部键，fn 返回错误时停止.
	Walk(ctx context.Context, fn func(key string) error) error
	Name() string
}

// Deps 创建策略所需的依赖.
type Deps struct {
	Config *configs.StorageConfig
	Fs     afero.Fs
	S3     *s3c.Client
}

// Factory 策略工厂函数.
type Factory func(deps Deps) (Strategy, error)

var factories = map[configs.StorageType]Factory{}

// Register 注册存储策略.
func Register(t configs.StorageType, f Factory) {
	factories[t] = f
}

// GetRegisteredTypes 返回已注册的存储策略.
func GetRegisteredTypes() []configs.StorageType {
	types := make([]configs.StorageType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// New 按配置创建存储策略.
func New(deps Deps) (Strategy, error) {
	if deps.Config == nil {
		return nil, errors.New("blob: storage config is nil")
	}

	f, ok := factories[deps.Config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type: %s", deps.Config.Type)
	}

	return f(deps)
}
