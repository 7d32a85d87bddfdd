package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/metrics"
)

// 入库状态，只用于日志.
const (
	StateReceived  = "received"
	StateValidated = "validated"
	StateHashed    = "hashed"
	StateStored    = "stored"
	StateRecorded  = "recorded"
	StateComplete  = "complete"
	StateAborted   = "aborted"
)

// JobEnqueuer 投递时长探测任务.
type JobEnqueuer interface {
	EnqueueDuration(ctx context.Context, audioID uint) error
}

// Ingestor 音频入库：校验 → 哈希 → 写入存储 → 建立记录 → 投递时长任务.
// 临时文件在任何退出路径上都恰好删除一次.
type Ingestor struct {
	Fs    afero.Fs
	Gate  *Gate
	Store Store
	Blob  blob.Strategy
	Jobs  JobEnqueuer
	// Hash 默认 HashFile.
	Hash func(fs afero.Fs, path string) (string, error)
}

// Ingest 处理一次上传，返回新建的记录.
func (ing *Ingestor) Ingest(ctx context.Context, user *model.User, up *Upload) (*model.Audio, error) {
	ctx, span := otel.Tracer("soundvault/audio").Start(ctx, "audio.Ingest")
	defer span.End()

	l := nlog.Component("ingest")
	if up != nil {
		l = l.With().Str("original_name", up.OriginalName).Int64("size", up.Size).Logger()
		defer ing.Discard(up)
	}

	l.Debug().Str("state", StateReceived).Msg("upload received")

	a, err := ing.ingest(ctx, &l, user, up)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if e, ok := AsError(err); ok && e.IsValidation() {
			outcome = metrics.OutcomeRejected
		}

		metrics.IngestTotal.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.Debug().Str("state", StateAborted).Err(err).Msg("ingestion aborted")

		return nil, err
	}

	metrics.IngestTotal.WithLabelValues(metrics.OutcomeStored).Inc()
	metrics.IngestBytes.Observe(float64(a.Size))
	span.SetAttributes(attribute.Int64("audio.id", int64(a.ID)), attribute.String("audio.hash", a.Hash))

	return a, nil
}

func (ing *Ingestor) ingest(ctx context.Context, l *zerolog.Logger, user *model.User, up *Upload) (*model.Audio, error) {
	if user == nil {
		return nil, errors.New("ingest: no user")
	}

	var slug string
	if up != nil {
		slug = Slugify(up.OriginalName)
	}

	if err := ing.Gate.Check(ctx, up, slug); err != nil {
		return nil, err
	}

	l.Debug().Str("state", StateValidated).Str("url", slug).Msg("upload validated")

	hashFn := ing.Hash
	if hashFn == nil {
		hashFn = HashFile
	}

	hash, err := hashFn(ing.Fs, up.Path)
	if err != nil {
		return nil, newError(KindHashFault, err)
	}

	l.Debug().Str("state", StateHashed).Str("hash", hash).Msg("upload hashed")

	if slug == "" {
		slug = HashSlug(hash)
		if err := ing.Gate.CheckSlug(ctx, slug, 0); err != nil {
			return nil, err
		}
	}

	if err := ing.store(ctx, hash, up); err != nil {
		return nil, newError(KindStorageFault, err)
	}

	l.Debug().Str("state", StateStored).Str("strategy", ing.Blob.Name()).Msg("upload stored")

	a := &model.Audio{
		UserID:       user.ID,
		Hash:         hash,
		OriginalName: up.OriginalName,
		URL:          slug,
		Mimetype:     up.Mimetype,
		Size:         up.Size,
		Visible:      true,
	}

	if err := ing.Store.Create(ctx, a); err != nil {
		return nil, newError(KindPersistenceFault, err)
	}

	l.Debug().Str("state", StateRecorded).Uint("audio_id", a.ID).Msg("audio recorded")

	if ing.Jobs != nil {
		if err := ing.Jobs.EnqueueDuration(ctx, a.ID); err != nil {
			l.Error().Err(err).Uint("audio_id", a.ID).Msg("enqueue duration job failed")
		}
	}

	l.Debug().Str("state", StateComplete).Uint("audio_id", a.ID).Msg("ingestion complete")

	return a, nil
}

func (ing *Ingestor) store(ctx context.Context, hash string, up *Upload) error {
	f, err := ing.Fs.Open(up.Path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return ing.Blob.Write(ctx, hash, f, up.Size)
}

// Discard 删除临时上传文件，文件不存在时静默返回.
func (ing *Ingestor) Discard(up *Upload) {
	if up == nil || up.Path == "" {
		return
	}

	if err := ing.Fs.Remove(up.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		nlog.Logger().Warn().Err(err).Str("path", up.Path).Msg("remove temporary upload failed")
	}
}
