package jobs

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/soundvault/pkg/queue"
)

// Enqueuer 通过消息队列投递时长任务，实现 audio.JobEnqueuer.
type Enqueuer struct {
	pub message.Publisher
}

// NewEnqueuer 创建投递器.
func NewEnqueuer(pub message.Publisher) *Enqueuer {
	return &Enqueuer{pub: pub}
}

// EnqueueDuration 上传完成后投递.
func (e *Enqueuer) EnqueueDuration(ctx context.Context, audioID uint) error {
	return e.enqueue(ctx, audioID, queue.ReasonIngest)
}

// EnqueueSweep 定时补偿时投递.
func (e *Enqueuer) EnqueueSweep(ctx context.Context, audioID uint) error {
	return e.enqueue(ctx, audioID, queue.ReasonSweep)
}

func (e *Enqueuer) enqueue(ctx context.Context, audioID uint, reason string) error {
	var opts []func(*queue.EventHeader)
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	payload := queue.AudioDurationRequestedPayload{AudioID: audioID, Reason: reason}
	if err := queue.PublishAudioDurationRequested(e.pub, payload, opts...); err != nil {
		return fmt.Errorf("enqueue duration job for audio %d: %w", audioID, err)
	}

	return nil
}

// RegisterHandlers 在 router 上注册时长任务处理器.
func RegisterHandlers(router *message.Router, sub message.Subscriber, job *DurationJob) {
	router.AddNoPublisherHandler(HandlerAudioDuration, queue.TopicAudioDurationRequested, sub, job.Handle)
}
