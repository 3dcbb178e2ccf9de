package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrMissingURI    = errors.New("mongodb: connection uri is empty")
	ErrInvalidURI    = errors.New("mongodb: connection uri is malformed")
	ErrConnectFailed = errors.New("mongodb: all connection attempts failed")
)

var uriPattern = regexp.MustCompile(`^mongodb(\+srv)?://([^:/]+:[^@]+@)?[^/]+(/[^?]*)?(\?.*)?$`)

// IsValidMongoURI checks the shape of a connection string before any dial is
// attempted. Credentials and options are optional, a host is not.
func IsValidMongoURI(uri string) bool {
	return uri != "" && uriPattern.MatchString(uri)
}

// dialFunc connects and pings one client. Swapped out in tests.
type dialFunc func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)

func defaultDial(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// ConnConfig carries the tunables for one logical database connection.
type ConnConfig struct {
	URI         string
	MaxRetries  int
	RetryDelay  time.Duration
	ConnTimeout time.Duration
	MaxPoolSize uint64
	MinPoolSize uint64
}

func (c ConnConfig) withDefaults() ConnConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.ConnTimeout <= 0 {
		c.ConnTimeout = 30 * time.Second
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 5
	}
	if c.MinPoolSize == 0 {
		c.MinPoolSize = 1
	}
	return c
}

type connEntry struct {
	client  *mongo.Client
	pending chan struct{} // closed once the in-flight attempt settles
	err     error
}

// Conn caches connected clients per URI. Concurrent callers for the same URI
// share a single in-flight connection attempt, and a failed server heartbeat
// drops the cached client so the next caller reconnects.
type Conn struct {
	mu      sync.Mutex
	entries map[string]*connEntry
	dial    dialFunc
	log     *logrus.Logger
}

func NewConn(log *logrus.Logger) *Conn {
	return &Conn{
		entries: make(map[string]*connEntry),
		dial:    defaultDial,
		log:     log,
	}
}

// Client returns a connected client for the URI, reusing the cached one when
// present. The context only bounds the caller's wait on a shared attempt; the
// attempt itself runs under the configured connection timeout.
func (c *Conn) Client(ctx context.Context, cfg ConnConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, ErrMissingURI
	}
	if !IsValidMongoURI(cfg.URI) {
		return nil, ErrInvalidURI
	}
	cfg = cfg.withDefaults()

	c.mu.Lock()
	if e, ok := c.entries[cfg.URI]; ok {
		if e.pending == nil {
			c.mu.Unlock()
			return e.client, e.err
		}
		pending := e.pending
		c.mu.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
		e, ok = c.entries[cfg.URI]
		c.mu.Unlock()
		if !ok {
			return nil, ErrConnectFailed
		}
		return e.client, e.err
	}

	e := &connEntry{pending: make(chan struct{})}
	c.entries[cfg.URI] = e
	c.mu.Unlock()

	client, err := c.connectWithRetry(ctx, cfg)

	c.mu.Lock()
	e.client = client
	e.err = err
	pending := e.pending
	e.pending = nil
	if err != nil {
		// Failed attempts are not cached; the next caller retries fresh.
		delete(c.entries, cfg.URI)
	}
	c.mu.Unlock()
	close(pending)

	return client, err
}

// connectWithRetry runs up to MaxRetries attempts, each with a progressively
// more conservative option set, sleeping an exponential backoff with jitter
// between attempts.
func (c *Conn) connectWithRetry(ctx context.Context, cfg ConnConfig) (*mongo.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		opts := c.optionsForAttempt(cfg, attempt)

		dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
		client, err := c.dial(dialCtx, opts)
		cancel()
		if err == nil {
			if attempt > 1 {
				c.log.WithField("attempt", attempt).Info("mongodb connected after retry")
			}
			return client, nil
		}
		lastErr = err
		c.log.WithError(err).WithField("attempt", attempt).Warn("mongodb connection attempt failed")

		if attempt == cfg.MaxRetries {
			break
		}
		delay := cfg.RetryDelay * (1 << (attempt - 1))
		delay += time.Duration(rand.Int63n(int64(time.Second)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConnectFailed, lastErr)
}

// optionsForAttempt escalates from the standard pooled configuration to a
// direct connection, then to a minimal short-timeout profile. Later attempts
// trade throughput for the best chance of getting any connection at all.
func (c *Conn) optionsForAttempt(cfg ConnConfig, attempt int) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerMonitor(c.serverMonitor(cfg.URI))

	switch attempt {
	case 1:
		opts.SetMaxPoolSize(cfg.MaxPoolSize).
			SetMinPoolSize(cfg.MinPoolSize).
			SetRetryWrites(true).
			SetRetryReads(true).
			SetConnectTimeout(cfg.ConnTimeout).
			SetServerSelectionTimeout(cfg.ConnTimeout)
	case 2:
		opts.SetDirect(true).
			SetMaxPoolSize(cfg.MaxPoolSize).
			SetConnectTimeout(cfg.ConnTimeout).
			SetServerSelectionTimeout(cfg.ConnTimeout)
	default:
		opts.SetMaxPoolSize(1).
			SetConnectTimeout(10 * time.Second).
			SetServerSelectionTimeout(10 * time.Second)
	}
	return opts
}

// serverMonitor invalidates the cached client when heartbeats start failing,
// so callers stop reusing a client whose topology has gone away.
func (c *Conn) serverMonitor(uri string) *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatFailed: func(ev *event.ServerHeartbeatFailedEvent) {
			c.log.WithError(ev.Failure).Warn("mongodb heartbeat failed, dropping cached connection")
			c.Invalidate(uri)
		},
	}
}

// Invalidate removes the cached client for a URI without disconnecting it;
// in-flight operations on the old client finish on their own.
func (c *Conn) Invalidate(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[uri]; ok && e.pending == nil {
		delete(c.entries, uri)
	}
}

// Reset drops every cached client and disconnects them. Intended for tests
// and shutdown.
func (c *Conn) Reset(ctx context.Context) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*connEntry)
	c.mu.Unlock()

	for _, e := range entries {
		if e.client != nil {
			_ = e.client.Disconnect(ctx)
		}
	}
}
