package mq_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/storage/mq"
)

var errFatal = errors.New("fatal")

func newMemoryClient(t *testing.T) *mq.Client {
	t.Helper()

	client, err := mq.New(context.Background(), &configs.MQConfig{Type: configs.MQTypeMemory, MemoryBuffer: 16}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func jobsConfig() configs.JobsConfig {
	return configs.JobsConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      1,
		PoisonTopic:     "test.poison",
	}
}

func runRouter(t *testing.T, client *mq.Client, handler message.NoPublishHandlerFunc) {
	t.Helper()

	router, err := client.NewRouter(mq.RouterOptions{
		Jobs:    jobsConfig(),
		IsFatal: func(err error) bool { return errors.Is(err, errFatal) },
	})
	require.NoError(t, err)

	router.AddNoPublisherHandler("test", "test.topic", client.Subscriber(), handler)

	ctx, cancel := context.WithCancel(context.Background())

	go func() { _ = router.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		_ = router.Close()
	})

	<-router.Running()
}

func waitPoison(t *testing.T, client *mq.Client) *message.Message {
	t.Helper()

	ch, err := client.Subscribe(context.Background(), "test.poison")
	require.NoError(t, err)

	select {
	case msg := <-ch:
		msg.Ack()

		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no poison message")

		return nil
	}
}

func TestFatalErrorSkipsRetry(t *testing.T) {
	client := newMemoryClient(t)

	var calls atomic.Int32

	runRouter(t, client, func(*message.Message) error {
		calls.Add(1)

		return errFatal
	})

	require.NoError(t, client.Publish(context.Background(), "test.topic", message.NewMessage(watermill.NewUUID(), []byte("x"))))

	msg := waitPoison(t, client)
	assert.Equal(t, "x", string(msg.Payload))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryableErrorRetriedThenPoisoned(t *testing.T) {
	client := newMemoryClient(t)

	var calls atomic.Int32

	runRouter(t, client, func(*message.Message) error {
		calls.Add(1)

		return errors.New("temporary")
	})

	require.NoError(t, client.Publish(context.Background(), "test.topic", message.NewMessage(watermill.NewUUID(), []byte("y"))))

	waitPoison(t, client)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryRecovers(t *testing.T) {
	client := newMemoryClient(t)

	var calls atomic.Int32

	done := make(chan struct{})

	runRouter(t, client, func(*message.Message) error {
		if calls.Add(1) < 2 {
			return errors.New("temporary")
		}

		close(done)

		return nil
	})

	require.NoError(t, client.Publish(context.Background(), "test.topic", message.NewMessage(watermill.NewUUID(), []byte("z"))))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never succeeded")
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestUnsupportedMQType(t *testing.T) {
	_, err := mq.New(context.Background(), &configs.MQConfig{Type: "kafka"}, false)
	assert.Error(t, err)
	assert.Contains(t, mq.GetRegisteredMQTypes(), configs.MQTypeMemory)
}
