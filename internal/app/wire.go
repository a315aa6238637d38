package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/sealbet/sealbet/internal/blob/s3"
	"github.com/sealbet/sealbet/internal/cache/redis"
	"github.com/sealbet/sealbet/internal/config"
	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/store/memory"
	"github.com/sealbet/sealbet/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the operating modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	Markets  domain.MarketStore
	Bets     domain.BetStore
	Oracles  domain.OracleStore
	Stakes   domain.StakeStore
	Protocol domain.ProtocolStore

	// Redis-backed infrastructure. All nil in dev mode.
	MarketCache domain.MarketCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage. Nil unless archiving is enabled.
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	Clock domain.Clock
}

// Wire constructs the concrete dependency implementations for the configured
// mode. Dev mode runs everything in memory; server mode requires PostgreSQL
// and Redis, plus S3 when archiving is enabled.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Clock: domain.SystemClock{}}

	if strings.ToLower(cfg.Mode) == "dev" {
		store := memory.New(cfg.Protocol.Authority, cfg.Protocol.Treasury)
		deps.Markets = store
		deps.Bets = store
		deps.Oracles = store
		deps.Stakes = store
		deps.Protocol = store
		logger.Info("wired in-memory store, state is not persisted")
		return deps, cleanup, nil
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Markets = postgres.NewMarketStore(pool)
	deps.Bets = postgres.NewBetStore(pool)
	deps.Oracles = postgres.NewOracleStore(pool)
	deps.Stakes = postgres.NewStakeStore(pool)

	protocolStore := postgres.NewProtocolStore(pool)
	if err := protocolStore.EnsureState(ctx, cfg.Protocol.Authority, cfg.Protocol.Treasury); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: protocol state: %w", err)
	}
	deps.Protocol = protocolStore

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.MarketCache = redis.NewMarketCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 settlement archive ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(
			deps.BlobWriter,
			deps.Markets,
			deps.Bets,
			deps.Clock,
			cfg.Archive.Retention.Duration,
			cfg.Archive.BatchSize,
			logger,
		)
	}

	return deps, cleanup, nil
}
