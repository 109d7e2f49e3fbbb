// Package authn holds the shape of the JWT/JWKS authenticator's cache
// (spec.md §6 "reads never block on network"; §5 "Module-level state: the
// JWT authenticator is initialized once at boot"). Actual signature
// verification is a documented collaborator interface per spec.md §1 -- this
// package owns only the cache: background refresh, bounded fetch timeout,
// and non-blocking reads, grounded on the refresh-goroutine idiom the
// teacher uses for its connection pool in dialect/sql/driver.go.
package authn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// KeySet is whatever the fetcher produces from a JWKS endpoint: the parsed
// set of public keys, opaque to this package.
type KeySet any

// Fetcher retrieves a fresh KeySet from the configured OIDC/JWKS URL. A real
// implementation performs the HTTP GET and JSON parsing; tests supply a
// fake.
type Fetcher func(ctx context.Context) (KeySet, error)

// JWKSCache holds the most recently fetched KeySet and refreshes it on a
// fixed interval in the background, so a request handler's read of Current
// never itself blocks on network I/O (spec.md §6).
type JWKSCache struct {
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration

	current atomic.Pointer[KeySet]
	lastErr atomic.Pointer[error]

	stop chan struct{}
	once sync.Once
}

// NewJWKSCache performs an initial synchronous fetch (boot-time
// initialization per spec.md §5's "Module-level state"), then starts a
// background goroutine that refreshes every interval until Close is called.
func NewJWKSCache(ctx context.Context, fetch Fetcher, interval, timeout time.Duration) (*JWKSCache, error) {
	c := &JWKSCache{fetch: fetch, interval: interval, timeout: timeout, stop: make(chan struct{})}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	keys, err := fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	c.current.Store(&keys)

	go c.refreshLoop()
	return c, nil
}

func (c *JWKSCache) refreshLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.refreshOnce()
		}
	}
}

func (c *JWKSCache) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	keys, err := c.fetch(ctx)
	if err != nil {
		// A failed refresh keeps serving the last known-good KeySet; the
		// error is recorded for observability but never surfaces to a
		// request already in flight (spec.md §6 "reads never block").
		c.lastErr.Store(&err)
		return
	}
	c.current.Store(&keys)
	c.lastErr.Store(nil)
}

// Current returns the most recently fetched KeySet. Never performs I/O.
func (c *JWKSCache) Current() KeySet {
	p := c.current.Load()
	if p == nil {
		return nil
	}
	return *p
}

// LastRefreshError reports the error from the most recent background
// refresh attempt, if any, without affecting what Current returns.
func (c *JWKSCache) LastRefreshError() error {
	p := c.lastErr.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Close stops the background refresh goroutine. Safe to call more than
// once.
func (c *JWKSCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

var ErrNoKeySet = errors.New("authn: no key set available")
