package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	"github.com/aifinder/aifinder-api/internal/domain/repository"
)

// UserRepository is the MongoDB implementation of repository.UserRepository.
type UserRepository struct {
	store *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) col() *mongo.Collection {
	return r.store.col(ColUsers)
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = bson.NewObjectID().Hex()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.LikedTools == nil {
		u.LikedTools = []string{}
	}
	if u.SavedTools == nil {
		u.SavedTools = []entity.SavedTool{}
	}
	if u.Folders == nil {
		u.Folders = []entity.Folder{}
	}
	if u.PaymentHist == nil {
		u.PaymentHist = []entity.PaymentRecord{}
	}
	return insertOne(ctx, r.col(), u)
}

func (r *UserRepository) GetByClerkID(ctx context.Context, clerkID string) (*entity.User, error) {
	return findOne[entity.User](ctx, r.col(), bson.D{{Key: "clerk_id", Value: clerkID}})
}

func (r *UserRepository) SetLastLogin(ctx context.Context, clerkID string, at time.Time) error {
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "last_login", Value: at},
			{Key: "is_active", Value: true},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyPayment is a single conditional update: the filter only matches when
// the payment id is not yet in the history, so replays match zero documents
// and write nothing.
func (r *UserRepository) ApplyPayment(ctx context.Context, clerkID string, rec entity.PaymentRecord) (bool, error) {
	filter := bson.D{
		{Key: "clerk_id", Value: clerkID},
		{Key: "payment_history.payment_id", Value: bson.D{{Key: "$ne", Value: rec.PaymentID}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "plan_amount", Value: rec.PlanAmount}}},
		{Key: "$set", Value: bson.D{
			{Key: "is_subscribed", Value: true},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
		{Key: "$push", Value: bson.D{{Key: "payment_history", Value: rec}}},
	}

	res, err := r.col().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, wrapError(err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Zero matches is either a replay or a missing user; only the latter is
	// an error.
	if _, err := r.GetByClerkID(ctx, clerkID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *UserRepository) AddLike(ctx context.Context, clerkID, toolID string) (bool, error) {
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "liked_tools", Value: toolID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return false, wrapError(err)
	}
	if res.MatchedCount == 0 {
		return false, repository.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) RemoveLike(ctx context.Context, clerkID, toolID string) (bool, error) {
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "liked_tools", Value: toolID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return false, wrapError(err)
	}
	if res.MatchedCount == 0 {
		return false, repository.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) PushSavedTool(ctx context.Context, clerkID string, st entity.SavedTool) error {
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "saved_tools", Value: st}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PullSavedTool removes entries matching by tool id when present, falling
// back to the name snapshot for entries written before ids were stored.
func (r *UserRepository) PullSavedTool(ctx context.Context, clerkID, toolID, name string) (bool, error) {
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "saved_tools", Value: bson.D{
				{Key: "$or", Value: bson.A{
					bson.D{{Key: "tool_id", Value: toolID}},
					bson.D{{Key: "name", Value: name}},
				}},
			}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return false, wrapError(err)
	}
	if res.MatchedCount == 0 {
		return false, repository.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *UserRepository) ReplaceFolders(ctx context.Context, clerkID string, folders []entity.Folder) error {
	if folders == nil {
		folders = []entity.Folder{}
	}
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "clerk_id", Value: clerkID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "folders", Value: folders},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindByToolRef returns every user holding any reference to the tool: a like,
// an unsorted save, or a folder entry. Matching mirrors PullSavedTool.
func (r *UserRepository) FindByToolRef(ctx context.Context, toolID, title string) ([]*entity.User, error) {
	refMatch := bson.D{{Key: "$elemMatch", Value: bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "tool_id", Value: toolID}},
			bson.D{{Key: "name", Value: title}},
		}},
	}}}

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "liked_tools", Value: toolID}},
		bson.D{{Key: "saved_tools", Value: refMatch}},
		bson.D{{Key: "folders.tools", Value: refMatch}},
	}}}

	return findMany[entity.User](ctx, r.col(), filter)
}

// RemoveToolRefs scrubs one user's references to a deleted tool in a single
// update. The caller supplies the already filtered folders array.
func (r *UserRepository) RemoveToolRefs(ctx context.Context, userID, toolID, title string, folders []entity.Folder) error {
	if folders == nil {
		folders = []entity.Folder{}
	}
	res, err := r.col().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{
			{Key: "$pull", Value: bson.D{
				{Key: "liked_tools", Value: toolID},
				{Key: "saved_tools", Value: bson.D{
					{Key: "$or", Value: bson.A{
						bson.D{{Key: "tool_id", Value: toolID}},
						bson.D{{Key: "name", Value: title}},
					}},
				}},
			}},
			{Key: "$set", Value: bson.D{
				{Key: "folders", Value: folders},
				{Key: "updated_at", Value: time.Now().UTC()},
			}},
		},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
