package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishAudioDurationRequested 发布 sv.audio.duration.requested 事件.
func PublishAudioDurationRequested(pub message.Publisher, payload AudioDurationRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioDurationRequested, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioDurationRequested, msg)
}

// ParseAudioDurationRequested 将 Watermill 消息解析为强类型 Envelope.
func ParseAudioDurationRequested(msg *message.Message) (Message[AudioDurationRequestedPayload], error) {
	return ParseWatermillMessage[AudioDurationRequestedPayload](msg)
}
