// Package configs 管理应用程序配置，包括服务器、数据库、对象存储、音频处理与队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Audio config:
//
//	audioConfig := configs.GetConfig().Audio
//	fmt.Println("max upload size:", audioConfig.MaxSize)
//
// Example accessing Storage config:
//
//	storageConfig := configs.GetConfig().Storage
//	fmt.Println("strategy:", storageConfig.Type)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/soundvault/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 SOUNDVAULT_SERVER_PORT.
const EnvPrefix = "SOUNDVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器配置，端口、域名、会话等
		DB             DBConfig             `mapstructure:"db"`              // 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // 对象存储配置
		Storage        StorageConfig        `mapstructure:"storage"`         // 音频存储策略
		Audio          AudioConfig          `mapstructure:"audio"`           // 上传校验与临时目录
		Probe          ProbeConfig          `mapstructure:"probe"`           // ffprobe 配置
		Jobs           JobsConfig           `mapstructure:"jobs"`            // 异步任务与定时任务
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // 键值存储配置（会话）
		Log            LogConfig            `mapstructure:"log"`             // 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 监控
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 熔断
		Auth           AuthConfig           `mapstructure:"auth"`            // 认证
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&globalConfig); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.S3.setDefaults(v)
	c.Storage.setDefaults(v)
	c.Audio.setDefaults(v)
	c.Probe.setDefaults(v)
	c.Jobs.setDefaults(v)
	c.MQ.setDefaults(v)
	c.KV.setDefaults(v)
	c.Log.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Auth.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// SetConfig 替换全局配置，主要用于测试与 CLI 子命令.
func SetConfig(c AppConfig) {
	globalConfig = c
}

// Defaults 返回仅包含默认值的配置.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var c AppConfig
	_ = v.Unmarshal(&c)

	return c
}

func GetViper() *viper.Viper {
	return appViper
}
