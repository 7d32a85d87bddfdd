// Package mq 提供基于 Watermill 的统一消息队列接口.
// 通过工厂注册不同实现，时长任务的投递与消费都经由这里.
//
// 支持的 MQ 类型：
//   - memory（gochannel，单进程，默认）
//   - nats（支持 JetStream）
//   - redis（pub/sub）
//
// 使用示例：
//
//	client, err := mq.New(ctx, &cfg.MQ, cfg.Metrics.Enabled)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/soundvault/pkg/configs"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/metrics"
)

// metricsNamespace watermill 指标前缀.
const metricsNamespace = "soundvault"

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	metrics    *wmetrics.PrometheusMetricsBuilder
	mqType     configs.MQType
}

// New 按配置创建消息队列客户端.
func New(ctx context.Context, cfg *configs.MQConfig, withMetrics bool) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Component("mq"))

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	c := &Client{publisher: pub, subscriber: sub, logger: logger, mqType: cfg.Type}

	if withMetrics {
		builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), metricsNamespace, "mq")

		if c.publisher, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if c.subscriber, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}

		c.metrics = &builder
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Bool("metrics", withMetrics).Msg("MQ initialized")

	return c, nil
}

// NewWithPubSub 使用现成的 Publisher/Subscriber 构造客户端，测试中传入 gochannel.
func NewWithPubSub(pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter) *Client {
	return &Client{publisher: pub, subscriber: sub, logger: logger, mqType: configs.MQTypeMemory}
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType { return c.mqType }

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher { return c.publisher }

// Subscriber 返回底层 Subscriber.
func (c *Client) Subscriber() message.Subscriber { return c.subscriber }

// Logger 返回 watermill 日志适配器.
func (c *Client) Logger() watermill.LoggerAdapter { return c.logger }

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// HealthCheck 检查发布端与订阅端是否可用.
func (c *Client) HealthCheck(_ context.Context) error {
	if c == nil || c.publisher == nil || c.subscriber == nil {
		return errors.New("mq not initialized")
	}

	return nil
}

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
