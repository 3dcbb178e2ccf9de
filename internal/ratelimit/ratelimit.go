// Package ratelimit implements a fixed-window, per-process request limiter.
// Counters live in memory only, so each instance enforces its own budget.
package ratelimit

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrRateLimited is returned once a client exhausts its window budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limit is the budget for one route: Points requests per Window.
type Limit struct {
	Points int
	Window time.Duration
}

// DefaultLimit applies to any route without an explicit entry.
var DefaultLimit = Limit{Points: 100, Window: time.Minute}

// Result reports the state of a consume call. RetryAfter is only set when
// the call was rejected, rounded up to whole seconds.
type Result struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type window struct {
	start time.Time
	count int
}

// Registry tracks one counter per (route, client) pair. Windows reset lazily
// on the next consume after expiry.
type Registry struct {
	mu      sync.Mutex
	limits  map[string]Limit
	windows map[string]*window
	now     func() time.Time
}

// NewRegistry builds a registry with per-route overrides. A nil map means
// every route gets the default budget.
func NewRegistry(limits map[string]Limit) *Registry {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Registry{
		limits:  limits,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// LimitFor returns the configured budget for a route.
func (r *Registry) LimitFor(route string) Limit {
	if l, ok := r.limits[route]; ok {
		return l
	}
	return DefaultLimit
}

// Consume spends one point for the client on the route. It returns
// ErrRateLimited once the budget is gone; the Result is valid either way.
func (r *Registry) Consume(route, clientID string) (Result, error) {
	limit := r.LimitFor(route)
	key := route + "|" + clientID

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= limit.Window {
		w = &window{start: now}
		r.windows[key] = w
	}

	if w.count >= limit.Points {
		retry := limit.Window - now.Sub(w.start)
		return Result{
			Limit:      limit.Points,
			Remaining:  0,
			RetryAfter: ceilSeconds(retry),
		}, ErrRateLimited
	}

	w.count++
	return Result{
		Limit:     limit.Points,
		Remaining: limit.Points - w.count,
	}, nil
}

// Prune drops expired windows. Called periodically so idle clients do not
// accumulate forever.
func (r *Registry) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, w := range r.windows {
		route := key
		if i := strings.IndexByte(key, '|'); i >= 0 {
			route = key[:i]
		}
		if now.Sub(w.start) >= r.limitForLocked(route).Window {
			delete(r.windows, key)
		}
	}
}

func (r *Registry) limitForLocked(route string) Limit {
	if l, ok := r.limits[route]; ok {
		return l
	}
	return DefaultLimit
}

// Reset clears every counter. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = make(map[string]*window)
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
