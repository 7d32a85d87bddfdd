package jobs

import (
	"github.com/rs/zerolog"
)

// JobLog 单次任务执行的日志，每行都带 job、audio_id、attempt 字段.
type JobLog struct {
	logger zerolog.Logger
}

// NewJobLog 创建任务日志.
func NewJobLog(base zerolog.Logger, job string, audioID uint, attempt int) *JobLog {
	return &JobLog{
		logger: base.With().Str("job", job).Uint("audio_id", audioID).Int("attempt", attempt).Logger(),
	}
}

// Log 记录一行普通日志.
func (j *JobLog) Log(msg string) {
	j.logger.Info().Msg(msg)
}

// Error 记录一行错误日志，fields 附加结构化字段.
func (j *JobLog) Error(err error, fields map[string]any) {
	j.logger.Error().Fields(fields).Msg(err.Error())
}
