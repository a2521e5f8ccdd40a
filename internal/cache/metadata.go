package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/observability"
)

// MemoryMetadata caches token metadata in process for the process lifetime.
type MemoryMetadata struct {
	entries *TTLCache[*domain.TokenMetadata]
}

// NewMemoryMetadata creates an in-process metadata cache without expiry.
func NewMemoryMetadata() *MemoryMetadata {
	return &MemoryMetadata{entries: NewTTL[*domain.TokenMetadata](0, nil)}
}

// Get returns a copy of the cached metadata for mint.
func (c *MemoryMetadata) Get(_ context.Context, mint string) (*domain.TokenMetadata, bool) {
	m, ok := c.entries.Get(mint)
	observability.RecordCacheLookup("metadata_memory", ok)
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Set stores a copy of m under mint.
func (c *MemoryMetadata) Set(_ context.Context, mint string, m *domain.TokenMetadata) {
	c.entries.Set(mint, m.Clone())
}

// RedisKeyTokenMetadata is the key format for cached token metadata.
const RedisKeyTokenMetadata = "swap_gateway:token_metadata:%s"

// RedisMetadata caches token metadata in Redis so replicas share resolutions.
// Entries are stored as JSON without expiry.
type RedisMetadata struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMetadata creates a Redis-backed metadata cache. ttl 0 keeps entries forever.
func NewRedisMetadata(client *redis.Client, ttl time.Duration) *RedisMetadata {
	return &RedisMetadata{client: client, ttl: ttl}
}

// Get returns the cached metadata for mint. Redis failures count as a miss.
func (c *RedisMetadata) Get(ctx context.Context, mint string) (*domain.TokenMetadata, bool) {
	key := redisKey(mint)

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Warn("redis metadata lookup failed")
		}
		observability.RecordCacheLookup("metadata_redis", false)
		return nil, false
	}

	m := new(cachedMetadata)
	if err := json.Unmarshal(val, m); err != nil {
		log.WithError(err).WithField("key", key).Warn("corrupt cached metadata")
		observability.RecordCacheLookup("metadata_redis", false)
		return nil, false
	}

	observability.RecordCacheLookup("metadata_redis", true)
	return m.toDomain(), true
}

// Set stores m under mint. Failures are logged.
func (c *RedisMetadata) Set(ctx context.Context, mint string, m *domain.TokenMetadata) {
	key := redisKey(mint)

	data, err := json.Marshal(fromDomain(m))
	if err != nil {
		log.WithError(err).WithField("key", key).Error("marshal metadata for cache")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("redis metadata store failed")
	}
}

func redisKey(mint string) string {
	return fmt.Sprintf(RedisKeyTokenMetadata, mint)
}

// cachedMetadata keeps the pair address, which the API representation omits.
type cachedMetadata struct {
	Address     string  `json:"address"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    int     `json:"decimals"`
	LogoURI     *string `json:"logo_uri"`
	Price       float64 `json:"price"`
	Volume24h   float64 `json:"volume_24h"`
	MarketCap   float64 `json:"market_cap"`
	PairAddress string  `json:"pair_address"`
}

func fromDomain(m *domain.TokenMetadata) cachedMetadata {
	return cachedMetadata{
		Address:     m.Address,
		Name:        m.Name,
		Symbol:      m.Symbol,
		Decimals:    m.Decimals,
		LogoURI:     m.LogoURI,
		Price:       m.Price,
		Volume24h:   m.Volume24h,
		MarketCap:   m.MarketCap,
		PairAddress: m.PairAddress,
	}
}

func (c *cachedMetadata) toDomain() *domain.TokenMetadata {
	return &domain.TokenMetadata{
		Address:     c.Address,
		Name:        c.Name,
		Symbol:      c.Symbol,
		Decimals:    c.Decimals,
		LogoURI:     c.LogoURI,
		Price:       c.Price,
		Volume24h:   c.Volume24h,
		MarketCap:   c.MarketCap,
		PairAddress: c.PairAddress,
	}
}
