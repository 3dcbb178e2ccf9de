package helpers

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes the redis client used for session hashes and
// last-seen stamps. Timeouts stay short so a slow redis never stalls auth.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}
