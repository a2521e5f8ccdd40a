package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-gateway/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTTLCache_ExpiresAtTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewTTL[float64](time.Hour, clock.Now)

	c.Set("USD/IDR", 15800)

	v, ok := c.Get("USD/IDR")
	require.True(t, ok)
	assert.Equal(t, 15800.0, v)

	clock.Advance(time.Hour - time.Second)
	_, ok = c.Get("USD/IDR")
	assert.True(t, ok, "entry is valid while age < ttl")

	clock.Advance(time.Second)
	_, ok = c.Get("USD/IDR")
	assert.False(t, ok, "entry expires once age == ttl")
}

func TestTTLCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewTTL[string](0, clock.Now)

	c.Set("k", "v")
	clock.Advance(24 * 365 * time.Hour)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestTTLCache_SetReplacesAndResetsAge(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewTTL[int](time.Minute, clock.Now)

	c.Set("k", 1)
	clock.Advance(50 * time.Second)
	c.Set("k", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTTLCache_DeleteAndPrune(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := NewTTL[int](time.Minute, clock.Now)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Len())

	clock.Advance(2 * time.Minute)
	c.Set("c", 3)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTL[int](time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("shared", i)
			c.Get("shared")
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("shared")
	assert.True(t, ok)
}

func TestMemoryMetadata_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryMetadata()

	logo := "https://example.com/logo.png"
	m := &domain.TokenMetadata{Address: "MintA", Name: "Alpha", Symbol: "ALP", Decimals: 6, LogoURI: &logo, Price: 1.5}
	c.Set(ctx, "MintA", m)

	m.Price = 99
	*m.LogoURI = "mutated"

	got, ok := c.Get(ctx, "MintA")
	require.True(t, ok)
	assert.Equal(t, 1.5, got.Price)
	assert.Equal(t, "https://example.com/logo.png", *got.LogoURI)

	got.Symbol = "CHANGED"
	again, _ := c.Get(ctx, "MintA")
	assert.Equal(t, "ALP", again.Symbol)

	_, ok = c.Get(ctx, "MintB")
	assert.False(t, ok)
}
