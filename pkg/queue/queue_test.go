package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/queue"
)

func TestPublishAndParseDurationRequested(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer ch.Close()

	require.NoError(t, queue.PublishAudioDurationRequested(ch,
		queue.AudioDurationRequestedPayload{AudioID: 100, Reason: queue.ReasonIngest},
		queue.WithTraceID("trace-1"),
	))

	msgs, err := ch.Subscribe(context.Background(), queue.TopicAudioDurationRequested)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		msg.Ack()

		env, err := queue.ParseAudioDurationRequested(msg)
		require.NoError(t, err)
		assert.Equal(t, uint(100), env.Payload.AudioID)
		assert.Equal(t, queue.TopicAudioDurationRequested, env.Header.Topic)
		assert.Equal(t, queue.DefaultProducer, env.Header.Producer)
		assert.Equal(t, "trace-1", msg.Metadata.Get("trace_id"))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}
