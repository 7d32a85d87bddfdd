package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/ids"
)

const tmpPrefix = ".tmp-"

func init() {
	Register(configs.StorageLocal, func(deps Deps) (Strategy, error) {
		fsys := deps.Fs
		if fsys == nil {
			fsys = afero.NewOsFs()
		}

		return NewLocal(fsys, deps.Config.LocalRoot)
	})
}

// Local 把对象保存为 <root>/<key> 文件.
type Local struct {
	fs   afero.Fs
	root string
}

// NewLocal 创建本地存储并确保根目录存在.
func NewLocal(fsys afero.Fs, root string) (*Local, error) {
	if root == "" {
		return nil, errors.New("blob: local root is empty")
	}

	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}

	return &Local{fs: fsys, root: root}, nil
}

// Name 返回策略名称.
func (l *Local) Name() string { return string(configs.StorageLocal) }

func (l *Local) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, tmpPrefix) {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}

	return filepath.Join(l.root, key), nil
}

// Write 先写临时文件再重命名，中途失败时临时文件被删除.
// 对象已存在时只刷新修改时间，清理任务据此跳过刚被再次引用的对象.
func (l *Local) Write(ctx context.Context, key string, r io.Reader, _ int64) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}

	if ok, err := afero.Exists(l.fs, dst); err != nil {
		return fmt.Errorf("stat %s: %w", key, err)
	} else if ok {
		now := time.Now()
		if err := l.fs.Chtimes(dst, now, now); err != nil {
			return fmt.Errorf("touch object %s: %w", key, err)
		}

		return nil
	}

	tmp := filepath.Join(l.root, tmpPrefix+ids.NewULID())

	f, err := l.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}

	_, copyErr := io.Copy(f, ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()

	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = l.fs.Remove(tmp)

		return fmt.Errorf("write object %s: %w", key, err)
	}

	if err := l.fs.Rename(tmp, dst); err != nil {
		_ = l.fs.Remove(tmp)

		return fmt.Errorf("commit object %s: %w", key, err)
	}

	return nil
}

// Read 打开对象文件.
func (l *Local) Read(_ context.Context, key string, _ ReadOptions) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := l.fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open object %s: %w", key, err)
	}

	return f, nil
}

// Stat 返回对象大小与修改时间.
func (l *Local) Stat(_ context.Context, key string) (Info, error) {
	p, err := l.path(key)
	if err != nil {
		return Info{}, err
	}

	fi, err := l.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNotFound
		}

		return Info{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return Info{Key: key, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Delete 删除对象，不存在时返回 ErrNotFound.
func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := l.fs.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("delete object %s: %w", key, err)
	}

	return nil
}

// Walk 遍历根目录下的对象，跳过未提交的临时文件.
func (l *Local) Walk(ctx context.Context, fn func(key string) error) error {
	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return fmt.Errorf("list storage root: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}

		if err := fn(e.Name()); err != nil {
			return err
		}
	}

	return nil
}

// ctxReader 在上下文取消后中断拷贝.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
