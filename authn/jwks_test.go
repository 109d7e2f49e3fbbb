package authn

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWKSCache_InitialFetchPopulatesCurrent(t *testing.T) {
	fetch := func(ctx context.Context) (KeySet, error) { return "keys-v1", nil }

	c, err := NewJWKSCache(context.Background(), fetch, time.Hour, time.Second)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "keys-v1", c.Current())
}

func TestNewJWKSCache_InitialFetchErrorPropagates(t *testing.T) {
	fetch := func(ctx context.Context) (KeySet, error) { return nil, errors.New("boom") }

	_, err := NewJWKSCache(context.Background(), fetch, time.Hour, time.Second)
	assert.EqualError(t, err, "boom")
}

func TestJWKSCache_BackgroundRefreshUpdatesCurrent(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context) (KeySet, error) {
		n := atomic.AddInt32(&calls, 1)
		return n, nil
	}

	c, err := NewJWKSCache(context.Background(), fetch, 5*time.Millisecond, time.Second)
	require.NoError(t, err)
	defer c.Close()

	require.Eventually(t, func() bool {
		v, ok := c.Current().(int32)
		return ok && v >= int32(2)
	}, time.Second, time.Millisecond)
}

func TestJWKSCache_FailedRefreshKeepsLastGood(t *testing.T) {
	var fail atomic.Bool
	fetch := func(ctx context.Context) (KeySet, error) {
		if fail.Load() {
			return nil, errors.New("refresh failed")
		}
		return "good", nil
	}

	c, err := NewJWKSCache(context.Background(), fetch, 5*time.Millisecond, time.Second)
	require.NoError(t, err)
	defer c.Close()

	fail.Store(true)
	require.Eventually(t, func() bool { return c.LastRefreshError() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, "good", c.Current())
}
