package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

func TestCacheService_TTL(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Stop()

	now := time.Now()
	cs.now = func() time.Time { return now }

	cs.Set("k", 42, time.Minute)
	v, ok := cs.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = cs.Get("k")
	assert.False(t, ok)

	cs.purgeExpired()
	assert.Equal(t, 0, cs.Len())
}

func TestCacheService_InvalidateGig(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Stop()

	gigID := uuid.New()
	cs.Set(GigCacheKey(gigID), "gig", time.Minute)
	cs.Set(GigListCacheKey(models.GigFilter{Limit: 20}), "page", time.Minute)
	cs.Set(StatsCacheKey(uuid.New(), "buyer"), "stats", time.Minute)

	cs.InvalidateGig(gigID)

	_, ok := cs.Get(GigCacheKey(gigID))
	assert.False(t, ok)
	_, ok = cs.Get(GigListCacheKey(models.GigFilter{Limit: 20}))
	assert.False(t, ok)
	assert.Equal(t, 1, cs.Len())
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(0)
	defer cs.Stop()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cs.GetOrSet(context.Background(), "key", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := cs.GetOrSet(context.Background(), "other", time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, cs.Len())
}
