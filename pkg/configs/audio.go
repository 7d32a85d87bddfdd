package configs

import "github.com/spf13/viper"

const (
	// DefaultAudioMaxSize 单个音频最大字节数 (20 MiB).
	DefaultAudioMaxSize int64 = 20 * 1024 * 1024
	DefaultUploadDir          = "uploads"
	DefaultScratchDir         = "/tmp/downloads"
)

// DefaultAllowedMimetypes 默认允许上传的音频类型.
var DefaultAllowedMimetypes = []string{
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
	"audio/x-wav",
	"audio/ogg",
	"audio/flac",
	"audio/x-flac",
	"audio/aac",
	"audio/mp4",
	"audio/x-m4a",
	"audio/webm",
}

// AudioConfig 上传校验与临时文件目录.
type AudioConfig struct {
	MaxSize          int64    `mapstructure:"max_size"          rule:"gt=0"`
	AllowedMimetypes []string `mapstructure:"allowed_mimetypes" rule:"min=1"`
	// UploadDir HTTP 层保存 multipart 临时文件的目录.
	UploadDir string `mapstructure:"upload_dir" rule:"required"`
	// ScratchDir 时长任务下载音频的临时目录.
	ScratchDir string `mapstructure:"scratch_dir" rule:"required"`
}

func (c *AudioConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("audio.max_size", DefaultAudioMaxSize)
	v.SetDefault("audio.allowed_mimetypes", DefaultAllowedMimetypes)
	v.SetDefault("audio.upload_dir", DefaultUploadDir)
	v.SetDefault("audio.scratch_dir", DefaultScratchDir)
}
