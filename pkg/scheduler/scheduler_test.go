package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/scheduler"
)

func TestRunNowRecordsStatus(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	ran := make(chan struct{}, 2)

	require.NoError(t, s.AddCron(context.Background(), "ok", "0 0 1 1 *", func(context.Context) error {
		ran <- struct{}{}

		return nil
	}))
	require.NoError(t, s.AddCron(context.Background(), "bad", "0 0 1 1 *", func(context.Context) error {
		ran <- struct{}{}

		return errors.New("boom")
	}))

	assert.Error(t, s.AddCron(context.Background(), "ok", "* * * * *", func(context.Context) error { return nil }))

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.RunNow("ok"))
	require.NoError(t, s.RunNow("bad"))
	assert.Error(t, s.RunNow("missing"))

	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}
	}

	require.Eventually(t, func() bool {
		infos := s.GetJobInfos()

		return len(infos) == 2 &&
			infos[0].Name == "bad" && infos[0].Status == scheduler.StatusError && infos[0].Error == "boom" &&
			infos[1].Name == "ok" && infos[1].Status == scheduler.StatusScheduled && !infos[1].LastSuccess.IsZero()
	}, 5*time.Second, 10*time.Millisecond)
}
