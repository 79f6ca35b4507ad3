package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/internal/queue"
	"github.com/lightit/patientreg/internal/service/notification"
)

// WorkerModule runs the email queue consumer alongside the HTTP server.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Redis    *redis.Client
	Notifier notification.Notifier
	Cfg      *config.Config
}

func RegisterWorkers(p WorkerParams) {
	worker := queue.NewWorker(p.Redis, p.Notifier, p.Cfg.Queue, slog.Default())

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				worker.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				slog.Warn("email worker did not stop before shutdown deadline")
			}
			return nil
		},
	})
}
