package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(limits map[string]Limit) (*Registry, *time.Time) {
	r := NewRegistry(limits)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestConsumeWithinBudget(t *testing.T) {
	r, _ := testRegistry(map[string]Limit{
		"/api/webhooks/razorpay": {Points: 3, Window: time.Minute},
	})

	for i := 0; i < 3; i++ {
		res, err := r.Consume("/api/webhooks/razorpay", "203.0.113.9")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := r.Consume("/api/webhooks/razorpay", "203.0.113.9")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	r, now := testRegistry(map[string]Limit{
		"/api/complain": {Points: 1, Window: 10 * time.Second},
	})

	_, err := r.Consume("/api/complain", "198.51.100.4")
	require.NoError(t, err)
	_, err = r.Consume("/api/complain", "198.51.100.4")
	require.ErrorIs(t, err, ErrRateLimited)

	*now = now.Add(10 * time.Second)
	res, err := r.Consume("/api/complain", "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)
}

func TestClientsAreIndependent(t *testing.T) {
	r, _ := testRegistry(map[string]Limit{
		"/api/user/activity": {Points: 1, Window: time.Minute},
	})

	_, err := r.Consume("/api/user/activity", "203.0.113.9")
	require.NoError(t, err)
	_, err = r.Consume("/api/user/activity", "203.0.113.9")
	require.ErrorIs(t, err, ErrRateLimited)

	_, err = r.Consume("/api/user/activity", "203.0.113.10")
	assert.NoError(t, err)
}

func TestRoutesAreIndependent(t *testing.T) {
	r, _ := testRegistry(map[string]Limit{
		"/a": {Points: 1, Window: time.Minute},
		"/b": {Points: 1, Window: time.Minute},
	})

	_, err := r.Consume("/a", "203.0.113.9")
	require.NoError(t, err)
	_, err = r.Consume("/b", "203.0.113.9")
	assert.NoError(t, err)
}

func TestUnknownRouteUsesDefault(t *testing.T) {
	r, _ := testRegistry(nil)

	l := r.LimitFor("/api/unmapped")
	assert.Equal(t, DefaultLimit, l)

	res, err := r.Consume("/api/unmapped", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit.Points, res.Limit)
	assert.Equal(t, DefaultLimit.Points-1, res.Remaining)
}

func TestRetryAfterRoundsUp(t *testing.T) {
	r, now := testRegistry(map[string]Limit{
		"/a": {Points: 1, Window: time.Minute},
	})

	_, err := r.Consume("/a", "ip")
	require.NoError(t, err)

	*now = now.Add(30500 * time.Millisecond)
	res, err := r.Consume("/a", "ip")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 30*time.Second, res.RetryAfter)
}

func TestPruneDropsExpiredWindows(t *testing.T) {
	r, now := testRegistry(map[string]Limit{
		"/a": {Points: 5, Window: time.Second},
	})

	_, err := r.Consume("/a", "ip")
	require.NoError(t, err)

	*now = now.Add(2 * time.Second)
	r.Prune()

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.windows)
}
