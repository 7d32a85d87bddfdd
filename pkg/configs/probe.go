package configs

import (
	"time"

	"github.com/spf13/viper"
)

// ProbeConfig ffprobe 调用配置，外部进程由熔断器保护.
type ProbeConfig struct {
	Bin     string        `mapstructure:"bin"     rule:"required"`
	Timeout time.Duration `mapstructure:"timeout" rule:"gt=0"`
	// Breaker 连续失败次数达到阈值后熔断.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

func (c *ProbeConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("probe.bin", "ffprobe")
	v.SetDefault("probe.timeout", "30s")
	v.SetDefault("probe.breaker_failures", 5)
	v.SetDefault("probe.breaker_timeout", "60s")
}
