package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/cache"
	"solana-swap-gateway/internal/config"
	"solana-swap-gateway/internal/resolver"
	"solana-swap-gateway/internal/storage"
	chstore "solana-swap-gateway/internal/storage/clickhouse"
	"solana-swap-gateway/internal/storage/memory"
	"solana-swap-gateway/internal/storage/migrations"
	pgstore "solana-swap-gateway/internal/storage/postgres"
)

// stores holds the persistence backends behind the services.
type stores struct {
	records storage.SwapRecordStore
	ledger  storage.FeeLedgerStore
	tokens  storage.TokenStore
	candles storage.CandleStore // nil when the archive is disabled
}

// createStores opens the configured stores. The returned cleanup closes every connection.
func createStores(ctx context.Context, cfg *config.Config, migrate bool, logger logrus.FieldLogger) (*stores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s := &stores{}
	if cfg.UseMemory {
		s.records = memory.NewSwapRecordStore()
		s.ledger = memory.NewFeeLedgerStore()
		s.tokens = memory.NewTokenStore()
		s.candles = memory.NewCandleStore()
		logger.Info("using in-memory storage")
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		if migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
			logger.WithField("applied", len(applied)).Info("postgres migrations done")
		}

		s.records = pgstore.NewSwapRecordStore(pool)
		s.ledger = pgstore.NewFeeLedgerStore(pool)
		s.tokens = pgstore.NewTokenStore(pool)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := openClickhouse(ctx, cfg.ClickhouseDSN, migrate)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := conn.Close(); err != nil {
				logger.WithError(err).Warn("close clickhouse")
			}
		})
		s.candles = chstore.NewCandleStore(conn)
	}

	return s, cleanup, nil
}

func openClickhouse(ctx context.Context, dsn string, migrate bool) (*chstore.Conn, error) {
	if migrate {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		return conn, nil
	}
	return chstore.NewConn(ctx, dsn)
}

// createMetadataCache returns the Redis cache when configured, the in-process cache otherwise.
func createMetadataCache(ctx context.Context, addr string, logger logrus.FieldLogger) (resolver.Cache, func(), error) {
	if addr == "" {
		return cache.NewMemoryMetadata(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	logger.WithField("addr", addr).Info("using redis metadata cache")

	return cache.NewRedisMetadata(client, 0), func() { client.Close() }, nil
}
