package application

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrUserPending means the user record has not been written yet; signup
	// webhooks from the identity provider can arrive after the first request.
	ErrUserPending = errors.New("user record not ready")
)

// EmailPublisher is what the services need from the RabbitMQ publisher.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Identity is the caller's snapshot of the identity-provider account.
type Identity struct {
	ClerkID       string
	Email         string
	Name          string
	Image         string
	EmailVerified *time.Time
}

type UserService struct {
	Users  repo.UserRepository
	Redis  *redis.Client
	Logger *logrus.Logger

	maxAttempts int
	baseBackoff time.Duration
}

func NewUserService(users repo.UserRepository, rdb *redis.Client, logger *logrus.Logger) *UserService {
	return &UserService{
		Users:       users,
		Redis:       rdb,
		Logger:      logger,
		maxAttempts: 3,
		baseBackoff: 200 * time.Millisecond,
	}
}

func sessionKey(clerkID string) string {
	return "user:session:" + clerkID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// EnsureUser returns the user for an identity, creating the record when it
// does not exist yet. A duplicate-key error means a concurrent signup won the
// insert; the existing record is re-fetched and returned. Transient failures
// are retried with exponential backoff.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*entity.User, bool, error) {
	if id.ClerkID == "" {
		return nil, false, ErrUserNotFound
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		u, err := s.Users.GetByClerkID(ctx, id.ClerkID)
		if err == nil {
			s.cacheSession(ctx, u)
			return u, false, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			lastErr = err
			s.sleepBackoff(ctx, attempt)
			continue
		}

		u = &entity.User{
			ClerkID:       id.ClerkID,
			Email:         id.Email,
			Name:          id.Name,
			Image:         id.Image,
			EmailVerified: id.EmailVerified,
			IsActive:      true,
		}
		err = s.Users.Create(ctx, u)
		if err == nil {
			s.Logger.WithField("clerk_id", id.ClerkID).Info("user created")
			s.cacheSession(ctx, u)
			return u, true, nil
		}
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost the race against a concurrent signup.
			if existing, gErr := s.Users.GetByClerkID(ctx, id.ClerkID); gErr == nil {
				s.cacheSession(ctx, existing)
				return existing, false, nil
			}
		}
		lastErr = err
		s.sleepBackoff(ctx, attempt)
	}
	return nil, false, lastErr
}

// RecordLogin stamps last_login. ErrUserPending signals that the record is
// not there yet and the caller should retry later rather than treat it as a
// hard failure.
func (s *UserService) RecordLogin(ctx context.Context, clerkID string) error {
	err := s.Users.SetLastLogin(ctx, clerkID, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserPending
	}
	if err != nil {
		return err
	}

	if s.Redis != nil {
		key := sessionKey(clerkID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{"last_seen": nowRFC3339()})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return nil
}

// Profile loads the user for the authenticated subject.
func (s *UserService) Profile(ctx context.Context, clerkID string) (*entity.User, error) {
	u, err := s.Users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) cacheSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ClerkID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"clerk_id":   u.ClerkID,
		"email":      u.Email,
		"name":       u.Name,
		"image":      u.Image,
		"updated_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *UserService) sleepBackoff(ctx context.Context, attempt int) {
	if attempt >= s.maxAttempts {
		return
	}
	delay := s.baseBackoff * (1 << (attempt - 1))
	delay += time.Duration(rand.Int63n(int64(50 * time.Millisecond)))
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
