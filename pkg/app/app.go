// Package app 提供应用程序的初始化和运行：HTTP 服务、时长任务 router 与定时任务.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/internal/jobs"
	"github.com/yeisme/soundvault/pkg/internal/router"
	"github.com/yeisme/soundvault/pkg/internal/storage"
	mqc "github.com/yeisme/soundvault/pkg/internal/storage/mq"
	"github.com/yeisme/soundvault/pkg/internal/users"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/metrics"
	"github.com/yeisme/soundvault/pkg/scheduler"
	"github.com/yeisme/soundvault/pkg/tracing"
)

// Options 选择要运行的组件. 内存消息队列只在进程内可见，此时 HTTP 与 Worker 必须在同一进程.
type Options struct {
	HTTP   bool
	Worker bool
	Cron   bool
}

// App 持有全部运行时组件.
type App struct {
	Engine    *gin.Engine
	Handlers  *handle.Handlers
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
	Router    *message.Router

	config *configs.AppConfig
	opts   Options
	logger zerolog.Logger
}

// New 初始化配置之外的全部组件：追踪、监控、存储、服务与路由.
func New(ctx context.Context, cfg *configs.AppConfig, opts Options) (*App, error) {
	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{
		Manager: manager,
		config:  cfg,
		opts:    opts,
		logger:  log.Component("app"),
	}

	if err := a.build(ctx); err != nil {
		_ = manager.Close()

		return nil, err
	}

	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.config
	mgr := a.Manager
	db := mgr.GetDBClient().GetDB()

	store := audio.NewGormStore(db)
	gate := &audio.Gate{MaxSize: cfg.Audio.MaxSize, AllowedMimetypes: cfg.Audio.AllowedMimetypes, Slugs: store}
	hasher := auth.NewHasher(cfg.Auth)
	authSvc := auth.NewService(db, hasher, mgr.GetKVClient(), cfg.Auth.UserCacheTTL)

	a.Handlers = &handle.Handlers{
		Auth:     authSvc,
		Sessions: auth.NewSessions(mgr.GetKVClient(), cfg.Server.SessionTTL),
		Users:    users.NewService(db, hasher, cfg.Auth.MinPasswordLength, authSvc),
		Audios:   &audio.Service{Store: store, Gate: gate, Blob: mgr.GetBlob()},
		Ingestor: &audio.Ingestor{
			Fs:    mgr.Fs,
			Gate:  gate,
			Store: store,
			Blob:  mgr.GetBlob(),
			Jobs:  jobs.NewEnqueuer(mgr.GetMQClient().Publisher()),
		},
		Fs:        mgr.Fs,
		UploadDir: cfg.Audio.UploadDir,
		Domain:    cfg.Server.Domain,
		Cookie: handle.CookieConfig{
			Name:   cfg.Server.SessionCookie,
			Secure: cfg.Server.SecureCookie,
			TTL:    cfg.Server.SessionTTL,
		},
	}

	if a.opts.Cron {
		sched, err := scheduler.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(ctx, sched, mgr, cfg.Jobs); err != nil {
			return fmt.Errorf("register cron jobs: %w", err)
		}

		a.Scheduler = sched
	}

	if a.opts.Worker {
		r, err := mgr.GetMQClient().NewRouter(mqc.RouterOptions{Jobs: cfg.Jobs, IsFatal: jobs.IsFatal})
		if err != nil {
			return err
		}

		jobs.RegisterHandlers(r, mgr.GetMQClient().Subscriber(), &jobs.DurationJob{
			Store:      store,
			Blob:       mgr.GetBlob(),
			Fs:         mgr.Fs,
			ScratchDir: cfg.Audio.ScratchDir,
			Prober:     jobs.NewFFProbe(cfg.Probe),
		})

		a.Router = r
	}

	if a.opts.HTTP {
		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		l := log.Logger()
		gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
		gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

		a.Engine = gin.New()
		a.Engine.MaxMultipartMemory = 8 << 20

		router.Register(a.Engine, router.Deps{
			Config:    cfg,
			Handlers:  a.Handlers,
			Manager:   mgr,
			Scheduler: a.Scheduler,
		})
	}

	return nil
}

// Run 并发运行已启用的组件，任一组件失败或 ctx 结束时全部停止.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.Router != nil {
		g.Go(func() error {
			a.logger.Info().Msg("starting job router")

			return a.Router.Run(ctx)
		})
	}

	if a.Scheduler != nil {
		a.Scheduler.Start()

		g.Go(func() error {
			<-ctx.Done()

			return a.Scheduler.Stop()
		})
	}

	if a.Engine != nil {
		g.Go(func() error { return a.serveHTTP(ctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (a *App) serveHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", addr).Str("domain", a.config.Server.Domain).Msg("starting http server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.logger.Info().Msg("shutting down http server")

	return srv.Shutdown(shutdownCtx)
}

// Close 关闭存储与追踪.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return errors.Join(a.Manager.Close(), tracing.ShutdownTracer(ctx))
}
