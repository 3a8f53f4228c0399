package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"print3d-bot/internal/catalog"
	"print3d-bot/internal/storage"
	"print3d-bot/pkg/api"
)

// APIClient is the backend collaborator contract consumed by the
// workflow controller.
type APIClient interface {
	CreateOrder(ctx context.Context, order api.OrderRequest) (api.Order, error)
	UploadFile(ctx context.Context, data []byte, filename, contentType string) (api.UploadResult, error)
	FindOrders(ctx context.Context, email string) ([]api.Order, error)
}

// ServiceCatalog resolves the orderable service list.
type ServiceCatalog interface {
	Services(ctx context.Context, activeOnly bool) ([]api.Service, error)
	Find(ctx context.Context, serviceID int64) (api.Service, bool, error)
}

// OrderArchive records successfully submitted orders locally.
type OrderArchive interface {
	SaveOrder(ctx context.Context, order storage.SubmittedOrder) (int64, error)
	Stats(ctx context.Context) (storage.OrderStats, error)
}

// telegramAPI is the slice of tgbotapi.BotAPI the bot actually uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var (
	_ telegramAPI    = (*tgbotapi.BotAPI)(nil)
	_ APIClient      = (*api.Client)(nil)
	_ ServiceCatalog = (*catalog.Catalog)(nil)
	_ OrderArchive   = (*storage.PostgresStorage)(nil)
)
