package jobs

// 任务与处理器名称常量，便于统一管理与引用.
const (
	JobAudioDuration     = "audio.duration"
	HandlerAudioDuration = "audio.duration.handler"
	JobDurationSweep     = "audio.duration.sweep"
	JobBlobPurge         = "blob.purge"
)

// attemptMetadataKey 记录同一消息在重试中的执行次数.
const attemptMetadataKey = "sv_attempt"
