// Package dbtest 为测试提供已迁移的内存数据库.
package dbtest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/storage/db"
)

// New 打开一个独立的内存 SQLite 并完成迁移. 单连接保证整个测试看到同一个库.
func New(t testing.TB) *db.Client {
	t.Helper()

	cfg := &configs.DBConfig{
		Type:         configs.SQLite,
		Database:     ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}

	client, err := db.Open(context.Background(), sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := client.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}
