//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/configs"
)

// sqliteBusyTimeout 让上传与时长回填任务并发写入时等待锁而不是直接返回 SQLITE_BUSY.
const sqliteBusyTimeout = "_busy_timeout=5000"

// createSQLiteDialector 创建SQLite dialector (CGo版本).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(withDSNParam(dsn, sqliteBusyTimeout))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
