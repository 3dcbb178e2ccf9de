package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/internal/domain/repository"
)

// ToolRepository is the MongoDB implementation of repository.ToolRepository.
type ToolRepository struct {
	store *Store
}

var _ repository.ToolRepository = (*ToolRepository)(nil)

func NewToolRepository(store *Store) *ToolRepository {
	return &ToolRepository{store: store}
}

func (r *ToolRepository) col() *mongo.Collection {
	return r.store.col(ColTools)
}

func (r *ToolRepository) Insert(ctx context.Context, t *entity.Tool) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = bson.NewObjectID().Hex()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return insertOne(ctx, r.col(), t)
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*entity.Tool, error) {
	return findOne[entity.Tool](ctx, r.col(), bson.D{{Key: "_id", Value: id}})
}

func (r *ToolRepository) GetByTitle(ctx context.Context, title string) (*entity.Tool, error) {
	return findOne[entity.Tool](ctx, r.col(), bson.D{{Key: "title", Value: title}})
}

func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col().DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ToolRepository) IncLikeCount(ctx context.Context, id string, delta int64) error {
	return r.inc(ctx, bson.D{{Key: "_id", Value: id}}, "like_count", delta)
}

func (r *ToolRepository) IncSaveCountByTitle(ctx context.Context, title string, delta int64) error {
	return r.inc(ctx, bson.D{{Key: "title", Value: title}}, "save_count", delta)
}

// inc adjusts a counter but never lets it go negative: a decrement only
// matches documents where the counter is still positive.
func (r *ToolRepository) inc(ctx context.Context, filter bson.D, field string, delta int64) error {
	if delta < 0 {
		filter = append(filter, bson.E{Key: field, Value: bson.D{{Key: "$gt", Value: 0}}})
	}
	res, err := r.col().UpdateOne(ctx, filter,
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: field, Value: delta}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 && delta > 0 {
		return repository.ErrNotFound
	}
	return nil
}
