package configs

import "github.com/spf13/viper"

// StorageType 音频字节的存储策略.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"

	DefaultStorageLocalRoot = "data/audios"
)

// StorageConfig 选择音频存储策略.
type StorageConfig struct {
	Type      StorageType `mapstructure:"type"       rule:"oneof=local s3"`
	LocalRoot string      `mapstructure:"local_root" rule:"required_if=Type local"`
}

func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.type", StorageLocal)
	v.SetDefault("storage.local_root", DefaultStorageLocalRoot)
}
