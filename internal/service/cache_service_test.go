package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheService_InvalidateByPrefix(t *testing.T) {
	cs := NewCacheService(time.Minute)
	defer cs.Close()

	cs.Set("view:/api/jobs", "list", time.Minute)
	cs.Set("view:/api/jobs?status=open", "open", time.Minute)
	cs.Set("view:/api/listings", "listings", time.Minute)

	cs.InvalidateByPrefix("view:/api/jobs")

	_, ok := cs.Get("view:/api/jobs?status=open")
	assert.False(t, ok)
	v, ok := cs.Get("view:/api/listings")
	assert.True(t, ok)
	assert.Equal(t, "listings", v)
}

func TestCacheService_Expiry(t *testing.T) {
	cs := NewCacheService(10 * time.Millisecond)
	defer cs.Close()

	cs.Set("k", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := cs.Get("k")
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return cs.Len() == 0 }, time.Second, 10*time.Millisecond)
}
