package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/internal/queue"
	"github.com/lightit/patientreg/internal/schema"
	"github.com/lightit/patientreg/internal/service/notification"
	"github.com/lightit/patientreg/internal/service/patient"
	"github.com/lightit/patientreg/internal/storage"
	"github.com/lightit/patientreg/pkg/email"
	"github.com/lightit/patientreg/pkg/filestore"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideEmailQueue,
		ProvideNotifier,
		ProvidePatientService,
	),
)

func ProvideEmailQueue(rdb *redis.Client, cfg *config.Config) *queue.Queue {
	return queue.New(rdb, cfg.Queue, slog.Default())
}

func ProvideNotifier(emailClient *email.Client) (notification.Notifier, error) {
	return notification.New(notification.ChannelMail, emailClient, slog.Default())
}

func ProvidePatientService(db *gorm.DB, files *filestore.Store, q *queue.Queue) patient.Service {
	repo := storage.NewRepository[schema.Patient](db)
	return patient.New(repo, files, q, slog.Default())
}
