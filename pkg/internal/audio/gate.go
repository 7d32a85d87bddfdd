package audio

import (
	"context"
	"slices"
	"strings"
)

// Upload HTTP 层保存的临时上传文件，所有权随 Ingest 调用转移给入库流程.
type Upload struct {
	Path         string
	OriginalName string
	Mimetype     string
	Size         int64
}

// SlugChecker 查询地址是否被未删除的记录占用.
type SlugChecker interface {
	SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error)
}

// Gate 入库前的校验，按顺序检查：文件存在、大小、类型、地址唯一.
type Gate struct {
	MaxSize          int64
	AllowedMimetypes []string
	Slugs            SlugChecker
}

// Check 返回第一个失败的检查. slug 为空时跳过唯一性检查.
func (g *Gate) Check(ctx context.Context, up *Upload, slug string) error {
	if up == nil || up.Path == "" {
		return &Error{Kind: KindNoFile}
	}

	if up.Size > g.MaxSize {
		return &Error{Kind: KindFileTooLarge, MaxSize: g.MaxSize}
	}

	if !g.mimetypeAllowed(up.Mimetype) {
		return &Error{Kind: KindBadMimetype, AllowedMimetypes: g.AllowedMimetypes}
	}

	if slug == "" {
		return nil
	}

	return g.CheckSlug(ctx, slug, 0)
}

// CheckSlug 检查地址唯一性，exceptID 为正在修改的记录.
func (g *Gate) CheckSlug(ctx context.Context, slug string, exceptID uint) error {
	taken, err := g.Slugs.SlugTaken(ctx, slug, exceptID)
	if err != nil {
		return newError(KindPersistenceFault, err)
	}

	if taken {
		return &Error{Kind: KindUrlNotUnique}
	}

	return nil
}

func (g *Gate) mimetypeAllowed(mt string) bool {
	mt, _, _ = strings.Cut(mt, ";")

	return slices.Contains(g.AllowedMimetypes, strings.ToLower(strings.TrimSpace(mt)))
}
