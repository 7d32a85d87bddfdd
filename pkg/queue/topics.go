// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：sv.<域>.<动作>.<状态>.
const (
	// TopicAudioDurationRequested 音频入库完成，请求探测时长.
	TopicAudioDurationRequested = "sv.audio.duration.requested"
	// TopicAudioDurationFailed 重试耗尽或致命错误的时长任务（死信）.
	TopicAudioDurationFailed = "sv.audio.duration.failed"
)
