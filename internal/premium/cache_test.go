package premium_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tayloree/confere/internal/premium"
)

var ctx = context.Background()

type countingFetcher struct {
	calls int
	resp  *premium.StatusResponse
	err   error
}

func (f *countingFetcher) FetchStatus(context.Context) (*premium.StatusResponse, error) {
	f.calls++
	return f.resp, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestCache_ReusesWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	f := &countingFetcher{resp: &premium.StatusResponse{IsPremium: true, Status: premium.StatusApproved}}
	c := premium.NewCache(f, 5*time.Minute, clock.now)

	assert.True(t, c.IsPremium(ctx))
	clock.t = clock.t.Add(4 * time.Minute)
	assert.True(t, c.IsPremium(ctx))
	assert.Equal(t, 1, f.calls)

	clock.t = clock.t.Add(time.Minute)
	assert.True(t, c.IsPremium(ctx))
	assert.Equal(t, 2, f.calls)

	c.Invalidate()
	assert.True(t, c.IsPremium(ctx))
	assert.Equal(t, 3, f.calls)
}

func TestCache_FailureIsNotPremiumAndNotCached(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	f := &countingFetcher{err: errors.New("offline")}
	c := premium.NewCache(f, 0, clock.now)

	assert.False(t, c.IsPremium(ctx))
	assert.False(t, c.IsPremium(ctx))
	assert.Equal(t, 2, f.calls)

	f.err = nil
	f.resp = &premium.StatusResponse{IsPremium: true, Status: premium.StatusApproved}
	assert.True(t, c.IsPremium(ctx))
}

func TestCache_NotConfiguredUnlocks(t *testing.T) {
	assert.True(t, premium.New("", "").IsPremium(ctx))
}
