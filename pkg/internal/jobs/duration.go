// Package jobs 实现异步时长探测任务与业务定时任务（基于 watermill router 与 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/ids"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/metrics"
	"github.com/yeisme/soundvault/pkg/queue"
)

// DurationJob 下载音频到临时目录，调用 Prober 读取时长并写回记录.
type DurationJob struct {
	Store      audio.Store
	Blob       blob.Strategy
	Fs         afero.Fs
	ScratchDir string
	Prober     Prober
	// Logger 为空时使用全局 logger.
	Logger *zerolog.Logger
}

// Process 处理一个音频 ID. 返回 nil 表示成功；Fatal 错误不会重试.
func (j *DurationJob) Process(ctx context.Context, audioID uint, attempt int) (err error) {
	ctx, span := otel.Tracer("soundvault/jobs").Start(ctx, "jobs.AudioDuration")
	defer span.End()

	span.SetAttributes(attribute.Int64("audio.id", int64(audioID)), attribute.Int("job.attempt", attempt))

	jl := NewJobLog(j.logger(), JobAudioDuration, audioID, attempt)

	defer func() {
		switch {
		case err == nil:
			metrics.DurationJobs.WithLabelValues(metrics.JobOutcomeSuccess).Inc()
		case IsFatal(err):
			metrics.DurationJobs.WithLabelValues(metrics.JobOutcomeFatal).Inc()
		default:
			metrics.DurationJobs.WithLabelValues(metrics.JobOutcomeRetry).Inc()
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	a, err := j.Store.Get(ctx, audioID)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			err = Fatal(fmt.Errorf("no such audio %d", audioID))
		}

		jl.Error(err, nil)

		return err
	}

	path, err := j.download(ctx, a.Hash)
	if err != nil {
		jl.Error(err, map[string]any{"hash": a.Hash})

		return err
	}

	res, err := j.probe(ctx, path)
	if err != nil {
		jl.Error(err, nil)

		return err
	}

	d, ok := res.Duration()
	if !ok {
		jl.Error(ErrMissingDuration, map[string]any{"ffData": res.Raw})

		return ErrMissingDuration
	}

	jl.Log("Setting audio.duration to " + strconv.FormatFloat(d, 'f', -1, 64))

	if err := j.Store.SetDuration(ctx, audioID, d); err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			err = Fatal(fmt.Errorf("no such audio %d", audioID))
		}

		jl.Error(err, nil)

		return err
	}

	return nil
}

// probe 调用 Prober，无论结果如何都删除临时文件.
func (j *DurationJob) probe(ctx context.Context, path string) (*ProbeResult, error) {
	defer func() {
		if err := j.Fs.Remove(path); err != nil {
			nlog.Logger().Warn().Err(err).Str("path", path).Msg("remove scratch file failed")
		}
	}()

	res, err := j.Prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	return res, nil
}

// download 把对象写到 <scratch>/<ulid>，失败时不留下文件.
func (j *DurationJob) download(ctx context.Context, hash string) (path string, err error) {
	if err := j.Fs.MkdirAll(j.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	rc, err := j.Blob.Read(ctx, hash, blob.ReadOptions{})
	if err != nil {
		return "", fmt.Errorf("read %s from %s: %w", hash, j.Blob.Name(), err)
	}
	defer rc.Close()

	path = filepath.Join(j.ScratchDir, ids.NewULID())

	f, err := j.Fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close scratch file: %w", cerr)
		}

		if err != nil {
			_ = j.Fs.Remove(path)
			path = ""
		}
	}()

	if _, err := io.Copy(f, rc); err != nil {
		return "", fmt.Errorf("copy %s to scratch: %w", hash, err)
	}

	return path, nil
}

// Handle 是 watermill 处理函数，同一消息的重试次数记录在 metadata 中.
func (j *DurationJob) Handle(msg *message.Message) error {
	attempt, _ := strconv.Atoi(msg.Metadata.Get(attemptMetadataKey))
	attempt++
	msg.Metadata.Set(attemptMetadataKey, strconv.Itoa(attempt))

	env, err := queue.ParseAudioDurationRequested(msg)
	if err != nil {
		return Fatal(fmt.Errorf("decode %s: %w", msg.UUID, err))
	}

	if env.Payload.AudioID == 0 {
		return Fatal(fmt.Errorf("message %s has no audio id", msg.UUID))
	}

	return j.Process(msg.Context(), env.Payload.AudioID, attempt)
}

func (j *DurationJob) logger() zerolog.Logger {
	if j.Logger != nil {
		return *j.Logger
	}

	return nlog.Component("jobs")
}
