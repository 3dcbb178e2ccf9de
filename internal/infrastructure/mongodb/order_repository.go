package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/internal/domain/repository"
)

// OrderRepository is the MongoDB implementation of repository.OrderRepository.
type OrderRepository struct {
	store *Store
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) col() *mongo.Collection {
	return r.store.col(ColPendingOrders)
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.PendingOrder) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return insertOne(ctx, r.col(), o)
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.PendingOrder, error) {
	return findOne[entity.PendingOrder](ctx, r.col(), bson.D{{Key: "_id", Value: orderID}})
}
