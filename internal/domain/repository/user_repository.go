package repository

import (
	"context"
	"time"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
)

// UserRepository defines the interface for user-store operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByClerkID(ctx context.Context, clerkID string) (*entity.User, error)
	SetLastLogin(ctx context.Context, clerkID string, at time.Time) error

	// ApplyPayment credits plan_amount and appends the payment record in a
	// single conditional update keyed on the payment id. It returns false
	// when the payment was already recorded (idempotent no-op) and
	// ErrNotFound when no user matches clerkID at all.
	ApplyPayment(ctx context.Context, clerkID string, rec entity.PaymentRecord) (bool, error)

	// Like bookkeeping. Both return whether the document changed so callers
	// can keep tool counters in step.
	AddLike(ctx context.Context, clerkID, toolID string) (bool, error)
	RemoveLike(ctx context.Context, clerkID, toolID string) (bool, error)

	// Saved-tool bookkeeping (unsorted list).
	PushSavedTool(ctx context.Context, clerkID string, st entity.SavedTool) error
	PullSavedTool(ctx context.Context, clerkID, toolID, name string) (bool, error)

	// ReplaceFolders writes the whole folders array back; folder mutations
	// are computed in the service on a loaded document.
	ReplaceFolders(ctx context.Context, clerkID string, folders []entity.Folder) error

	// Cascade support: find every user referencing the tool, and scrub one
	// user's references with a single combined update.
	FindByToolRef(ctx context.Context, toolID, title string) ([]*entity.User, error)
	RemoveToolRefs(ctx context.Context, userID, toolID, title string, folders []entity.Folder) error
}
