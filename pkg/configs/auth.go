package configs

import (
	"time"

	"github.com/spf13/viper"
)

// AuthConfig 用户认证与密码哈希（argon2id）参数.
type AuthConfig struct {
	MinPasswordLength int    `mapstructure:"min_password_length" rule:"min=1"`
	Argon2Time        uint32 `mapstructure:"argon2_time"         rule:"min=1"`
	Argon2MemoryKiB   uint32 `mapstructure:"argon2_memory_kib"   rule:"min=8"`
	Argon2Threads     uint8  `mapstructure:"argon2_threads"      rule:"min=1"`
	Argon2KeyLen      uint32 `mapstructure:"argon2_key_len"      rule:"min=16"`
	// UserCacheTTL 反序列化会话身份时的用户缓存时长，0 表示不缓存.
	UserCacheTTL time.Duration `mapstructure:"user_cache_ttl"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.min_password_length", 6)
	v.SetDefault("auth.argon2_time", 1)
	v.SetDefault("auth.argon2_memory_kib", 64*1024)
	v.SetDefault("auth.argon2_threads", 4)
	v.SetDefault("auth.argon2_key_len", 32)
	v.SetDefault("auth.user_cache_ttl", "1m")
}
