package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/pkg/database"
	"github.com/lightit/patientreg/pkg/email"
	"github.com/lightit/patientreg/pkg/filestore"
	redispkg "github.com/lightit/patientreg/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideDatabase),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideFileStore),
)

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing database connection")
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.New(cfg.Email)
}

func ProvideFileStore(cfg *config.Config) (*filestore.Store, error) {
	return filestore.New(cfg.Uploads, slog.Default())
}
