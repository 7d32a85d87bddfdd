package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/soundvault/pkg/configs"
	s3c "github.com/yeisme/soundvault/pkg/internal/storage/s3"
)

const (
	noSuchKey      = "NoSuchKey"
	touchedMetaKey = "Sv-Touched"
)

func init() {
	Register(configs.StorageS3, func(deps Deps) (Strategy, error) {
		if deps.S3 == nil {
			return nil, errors.New("blob: s3 client is not initialized")
		}

		return NewS3(deps.S3), nil
	})
}

// S3 把对象保存在 MinIO/S3 bucket 中.
type S3 struct {
	client *s3c.Client
}

// NewS3 基于已连接的客户端创建策略.
func NewS3(client *s3c.Client) *S3 {
	return &S3{client: client}
}

// Name 返回策略名称.
func (s *S3) Name() string { return string(configs.StorageS3) }

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == noSuchKey
}

// Write 上传对象. 已存在时原地复制一次以刷新 LastModified，清理任务据此跳过刚被再次引用的对象.
func (s *S3) Write(ctx context.Context, key string, r io.Reader, size int64) error {
	if _, err := s.client.StatObject(ctx, s.client.Bucket, key, minio.StatObjectOptions{}); err == nil {
		return s.touch(ctx, key)
	} else if !isNoSuchKey(err) {
		return fmt.Errorf("stat object %s: %w", key, err)
	}

	_, err := s.client.PutObject(ctx, s.client.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// touch 复制到自身并替换元数据，S3 不允许不改元数据的自复制.
func (s *S3) touch(ctx context.Context, key string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          s.client.Bucket,
			Object:          key,
			ReplaceMetadata: true,
			UserMetadata:    map[string]string{touchedMetaKey: time.Now().UTC().Format(time.RFC3339)},
		},
		minio.CopySrcOptions{Bucket: s.client.Bucket, Object: key},
	)
	if err != nil {
		return fmt.Errorf("touch object %s: %w", key, err)
	}

	return nil
}

// Read 打开对象流，先 Stat 以便把缺失映射为 ErrNotFound.
func (s *S3) Read(ctx context.Context, key string, _ ReadOptions) (io.ReadCloser, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.client.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	return obj, nil
}

// Stat 返回对象元信息.
func (s *S3) Stat(ctx context.Context, key string) (Info, error) {
	st, err := s.client.StatObject(ctx, s.client.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return Info{}, ErrNotFound
		}

		return Info{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return Info{Key: key, Size: st.Size, ModTime: st.LastModified}, nil
}

// Delete 删除对象.
func (s *S3) Delete(ctx context.Context, key string) error {
	if _, err := s.Stat(ctx, key); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.client.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// Walk 列出 bucket 中的全部对象.
func (s *S3) Walk(ctx context.Context, fn func(key string) error) error {
	// fn 提前返回时取消列举，否则 minio 的列举 goroutine 会阻塞在发送上.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.client.Bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list objects: %w", obj.Err)
		}

		if err := fn(obj.Key); err != nil {
			return err
		}
	}

	return nil
}
