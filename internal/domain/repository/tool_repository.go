package repository

import (
	"context"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
)

// ToolRepository defines the interface for catalog-store operations.
type ToolRepository interface {
	Insert(ctx context.Context, t *entity.Tool) error
	GetByID(ctx context.Context, id string) (*entity.Tool, error)
	GetByTitle(ctx context.Context, title string) (*entity.Tool, error)
	Delete(ctx context.Context, id string) error
	IncLikeCount(ctx context.Context, id string, delta int64) error
	IncSaveCountByTitle(ctx context.Context, title string, delta int64) error
}

// OrderRepository persists the order -> payer mapping used by the webhook.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.PendingOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.PendingOrder, error)
}
