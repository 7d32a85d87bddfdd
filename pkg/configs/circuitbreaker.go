package configs

import "github.com/spf13/viper"

const (
	DefaultCBEnabled           = false
	DefaultCBName              = "soundvault.api" // 日志与状态变更中显示的熔断器名称
	DefaultCBFailureRate       = 0.5
	DefaultCBMinRequests       = 20
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 5
)

// CircuitBreakerConfig 登录与 /api 路由共用的熔断器. 只统计 5xx，音频流不经过它.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Name              string  `mapstructure:"name"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"gte=0,lte=1"` // 窗口内 5xx 比例阈值
	MinRequests       uint32  `mapstructure:"min_requests"`                            // 进入统计的最小请求数
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"min=0"`       // 统计窗口，0 表示不清零
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"min=1"`       // 打开后多久进入半开
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half" rule:"min=1"`       // 半开时放行的请求数
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.name", DefaultCBName)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("circuit_breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("circuit_breaker.max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
