package mq

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/yeisme/soundvault/pkg/configs"
)

// RouterOptions 任务路由的重试与死信配置.
type RouterOptions struct {
	Jobs configs.JobsConfig
	// IsFatal 判定无需重试、直接进入死信的错误.
	IsFatal func(error) bool
	// CloseTimeout 关闭时等待处理中消息的时间.
	CloseTimeout time.Duration
}

// NewRouter 创建带恢复、死信与重试中间件的 router.
// 中间件顺序：Recoverer → PoisonQueue → Retry（致命错误跳过重试）→ handler.
func (c *Client) NewRouter(opts RouterOptions) (*message.Router, error) {
	closeTimeout := opts.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	poison, err := middleware.PoisonQueue(c.publisher, opts.Jobs.PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      opts.Jobs.MaxRetries,
		InitialInterval: opts.Jobs.InitialInterval,
		MaxInterval:     opts.Jobs.MaxInterval,
		Multiplier:      opts.Jobs.Multiplier,
		Logger:          c.logger,
	}

	router.AddMiddleware(
		middleware.Recoverer,
		poison,
		retryUnlessFatal(retry, opts.IsFatal),
	)

	if c.metrics != nil {
		c.metrics.AddPrometheusRouterMetrics(router)
	}

	return router, nil
}

// retryUnlessFatal 包装 Retry，致命错误只执行一次并原样返回.
func retryUnlessFatal(retry middleware.Retry, isFatal func(error) bool) message.HandlerMiddleware {
	if isFatal == nil {
		return retry.Middleware
	}

	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			var fatal error

			out, err := retry.Middleware(func(m *message.Message) ([]*message.Message, error) {
				produced, err := h(m)
				if err != nil && isFatal(err) {
					fatal = err

					return nil, nil
				}

				return produced, err
			})(msg)

			if fatal != nil {
				return nil, fatal
			}

			return out, err
		}
	}
}
