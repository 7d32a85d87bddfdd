//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/configs"
)

// sqliteBusyTimeout 纯 Go 驱动通过 _pragma 设置 busy_timeout.
const sqliteBusyTimeout = "_pragma=busy_timeout(5000)"

// createSQLiteDialector 创建SQLite dialector (纯 Go 版本).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(withDSNParam(dsn, sqliteBusyTimeout))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
