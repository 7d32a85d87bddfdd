package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/soundvault/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeMemory, memoryFactory)
}

// memoryFactory 进程内 gochannel，发布端与订阅端是同一个实例.
// Persistent 保证先发布后订阅的消息不会丢失.
func memoryFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	buffer := cfg.MemoryBuffer
	if buffer <= 0 {
		buffer = configs.DefaultMemoryBuffer
	}

	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
		Persistent:          true,
	}, logger)

	return ch, ch, nil
}
