package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/soundvault/pkg/configs"
)

// DefaultChannelBufferSize 默认通道缓冲区大小.
const DefaultChannelBufferSize = 100

// RedisPublisher Redis pub/sub 发布端，只传输消息载荷.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber Redis pub/sub 订阅端.
// Redis pub/sub 不持久化，未被订阅时发布的消息会丢失，由定时补偿任务兜底.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	subs    []*redis.PubSub
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber，两者共享连接，由发布端负责关闭.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{client: rdb, logger: logger, closeCh: make(chan struct{})}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := p.client.Publish(ctx, topic, []byte(msg.Payload)).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 实现 Publisher 接口.
func (p *RedisPublisher) Close() error {
	err := p.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}

	return err
}

// Subscribe 实现 Subscriber 接口，每条消息等待 Ack 后才投递下一条，Nack 时重新投递.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, err
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-ps.Channel():
				if !ok {
					return
				}

				if !s.deliver(ctx, out, []byte(raw.Payload)) {
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *RedisSubscriber) deliver(ctx context.Context, out chan<- *message.Message, payload []byte) bool {
	msg := message.NewMessage(watermill.NewUUID(), payload)

	for {
		msgCtx, cancel := context.WithCancel(ctx)
		msg.SetContext(msgCtx)

		select {
		case out <- msg:
		case <-s.closeCh:
			cancel()

			return false
		case <-ctx.Done():
			cancel()

			return false
		}

		select {
		case <-msg.Acked():
			cancel()

			return true
		case <-msg.Nacked():
			cancel()

			s.logger.Debug("message nacked, redelivering", watermill.LogFields{"uuid": msg.UUID})
			msg = msg.Copy()
		case <-s.closeCh:
			cancel()

			return false
		case <-ctx.Done():
			cancel()

			return false
		}
	}
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}
	s.mu.Unlock()

	s.wg.Wait()

	return errors.Join(errs...)
}
