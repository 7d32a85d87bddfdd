package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于死信转储后定位来源.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// AudioDurationRequestedPayload 请求探测音频时长.
type AudioDurationRequestedPayload struct {
	AudioID uint `json:"audio_id"`
	// Reason 投递来源：ingest（上传完成）或 sweep（定时补偿）.
	Reason string `json:"reason,omitempty"`
}

// 投递来源.
const (
	ReasonIngest = "ingest"
	ReasonSweep  = "sweep"
)
