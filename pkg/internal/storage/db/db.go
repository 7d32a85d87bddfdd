// Package db 处理数据库存储操作：连接、方言注册与表结构迁移.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/model"
	nlog "github.com/yeisme/soundvault/pkg/log"
)

// DialectorFactory 定义创建 dialector 的函数类型.
type DialectorFactory func(dsn string) gorm.Dialector

// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	return types
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB

	dialect configs.DBType
}

// New 按配置打开数据库连接并配置连接池.
func New(ctx context.Context, cfg *configs.DBConfig, withMetrics bool) (*Client, error) {
	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("failed to generate DSN for database type: %s", cfg.Type)
	}

	factory, exists := dialectorFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	client, err := Open(ctx, factory(dsn), cfg)
	if err != nil {
		return nil, err
	}

	if withMetrics {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to register GORM metrics: %w", err)
		}

		nlog.Logger().Info().Msg("GORM metrics registered")
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connected")

	return client, nil
}

// Open 使用给定 dialector 打开连接，测试中可直接传入内存 SQLite.
func Open(ctx context.Context, dialector gorm.Dialector, cfg *configs.DBConfig) (*Client, error) {
	gormLogger := logger.New(
		nlog.Logger(),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  parseGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{DB: db, dialect: cfg.Type}, nil
}

func parseGormLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// GetDB 返回 GORM DB 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// liveURLIndex 只约束未软删除记录的地址唯一.
const liveURLIndex = "CREATE UNIQUE INDEX IF NOT EXISTS idx_audios_url_live ON audios (url) WHERE deleted_at IS NULL"

// Migrate 迁移 users 与 audios 表，并创建地址部分唯一索引.
// MySQL 不支持部分索引，此时只依赖服务层的唯一性检查.
func (c *Client) Migrate(ctx context.Context) error {
	db := c.WithContext(ctx)

	if err := db.AutoMigrate(&model.User{}, &model.Audio{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if c.dialect == configs.MySQL || c.dialect == configs.MariaDB {
		nlog.Logger().Warn().Msg("partial unique index on audios.url is not supported by MySQL, skipped")

		return nil
	}

	if err := db.Exec(liveURLIndex).Error; err != nil {
		return fmt.Errorf("create live url index: %w", err)
	}

	return nil
}

// Ping 检查数据库连接.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册GORM连接池指标.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: defaultGORMMetricsRefreshInterval,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}

// withDSNParam 在 DSN 末尾追加查询参数，已有同名参数（或同名 pragma）时不覆盖.
func withDSNParam(dsn, param string) string {
	key := param
	if i := strings.Index(param, "("); i >= 0 {
		key = param[:i+1]
	} else if i := strings.Index(param, "="); i >= 0 {
		key = param[:i+1]
	}

	if strings.Contains(dsn, "?"+key) || strings.Contains(dsn, "&"+key) {
		return dsn
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}

	return dsn + "?" + param
}
