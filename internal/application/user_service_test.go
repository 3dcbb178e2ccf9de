package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
)

func newUserService(users *fakeUserRepo) *UserService {
	svc := NewUserService(users, nil, testLogger())
	svc.baseBackoff = time.Millisecond
	return svc
}

func TestEnsureUserCreatesWhenMissing(t *testing.T) {
	users := newFakeUserRepo()
	svc := newUserService(users)

	u, created, err := svc.EnsureUser(context.Background(), Identity{
		ClerkID: "user_1", Email: "a@b.c", Name: "Asha",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "user_1", u.ClerkID)
	assert.Equal(t, "a@b.c", u.Email)
	assert.True(t, u.IsActive)
}

func TestEnsureUserReturnsExisting(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Email: "a@b.c"})
	svc := newUserService(users)

	u, created, err := svc.EnsureUser(context.Background(), Identity{ClerkID: "user_1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a@b.c", u.Email)
}

func TestEnsureUserAbsorbsDuplicateRace(t *testing.T) {
	// The lookup misses, the insert collides with a concurrent signup, and
	// the re-fetch returns the record that won the race.
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Email: "first@b.c"})
	users.getMisses = 1
	users.createErr = repo.ErrDuplicate
	svc := newUserService(users)

	u, created, err := svc.EnsureUser(context.Background(), Identity{ClerkID: "user_1", Email: "second@b.c"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "first@b.c", u.Email)
}

func TestEnsureUserRequiresSubject(t *testing.T) {
	svc := newUserService(newFakeUserRepo())
	_, _, err := svc.EnsureUser(context.Background(), Identity{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordLoginStampsLastLogin(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1"})
	svc := newUserService(users)

	require.NoError(t, svc.RecordLogin(context.Background(), "user_1"))

	u, _ := users.GetByClerkID(context.Background(), "user_1")
	require.NotNil(t, u.LastLogin)
	assert.True(t, u.IsActive)
}

func TestRecordLoginPendingUser(t *testing.T) {
	svc := newUserService(newFakeUserRepo())
	err := svc.RecordLogin(context.Background(), "user_ghost")
	assert.ErrorIs(t, err, ErrUserPending)
}

func TestProfile(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_1", Name: "Asha"})
	svc := newUserService(users)

	u, err := svc.Profile(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)

	_, err = svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
