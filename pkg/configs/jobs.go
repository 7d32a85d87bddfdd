package configs

import (
	"time"

	"github.com/spf13/viper"
)

// JobsConfig 异步任务（watermill router）与定时任务（gocron）配置.
type JobsConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"      rule:"min=0"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"       rule:"gte=1"`
	PoisonTopic     string        `mapstructure:"poison_topic"     rule:"required"`
	// SweepCron 重新投递尚未探测时长的音频.
	SweepCron string `mapstructure:"sweep_cron"`
	// PurgeCron 清理无引用的存储对象.
	PurgeCron string `mapstructure:"purge_cron"`
	// PurgeRetention 软删除记录保留多久后其对象才允许清理.
	PurgeRetention time.Duration `mapstructure:"purge_retention"`
	// PurgeGrace 修改时间在该时长内的对象不清理，覆盖已写入存储但尚未落库的上传.
	PurgeGrace time.Duration `mapstructure:"purge_grace"`
	// SweepBatch 每次重新投递的最大数量.
	SweepBatch int `mapstructure:"sweep_batch" rule:"min=1"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.max_retries", 3)
	v.SetDefault("jobs.initial_interval", "1s")
	v.SetDefault("jobs.max_interval", "30s")
	v.SetDefault("jobs.multiplier", 2.0)
	v.SetDefault("jobs.poison_topic", "sv.audio.duration.failed")
	v.SetDefault("jobs.sweep_cron", "*/15 * * * *")
	v.SetDefault("jobs.purge_cron", "30 3 * * *")
	v.SetDefault("jobs.purge_retention", "720h")
	v.SetDefault("jobs.purge_grace", "24h")
	v.SetDefault("jobs.sweep_batch", 100)
}
