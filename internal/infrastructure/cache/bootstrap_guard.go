package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	CacheVersion       = "v1"
	bootstrapKeyPrefix = "chat-api:" + CacheVersion + ":bootstrap:"
	defaultGuardTTL    = 10 * time.Minute
)

// BootstrapGuard claims upstream conversation ids in redis so replicas racing
// on the same new conversation create a single record.
type BootstrapGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewBootstrapGuard connects to redisURL and verifies the connection.
func NewBootstrapGuard(ctx context.Context, redisURL string, ttl time.Duration, log zerolog.Logger) (*BootstrapGuard, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("Redis URL must be provided")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{opts.Addr},
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewBootstrapGuardWithClient(client, ttl, log), nil
}

// NewBootstrapGuardWithClient wraps an existing client.
func NewBootstrapGuardWithClient(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *BootstrapGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	logger := log.With().Str("component", "bootstrap-guard").Logger()
	logger.Info().Dur("ttl", ttl).Msg("conversation bootstrap guard enabled")
	return &BootstrapGuard{client: client, ttl: ttl, log: logger}
}

// Claim returns true for the first caller that claims id within the TTL.
func (g *BootstrapGuard) Claim(ctx context.Context, upstreamConversationID string) (bool, error) {
	claimed, err := g.client.SetNX(ctx, guardKey(upstreamConversationID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim conversation %s: %w", upstreamConversationID, err)
	}
	return claimed, nil
}

// Ping checks redis connectivity for readiness probes.
func (g *BootstrapGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close releases the redis connection pool.
func (g *BootstrapGuard) Close() error {
	return g.client.Close()
}

func guardKey(upstreamConversationID string) string {
	return bootstrapKeyPrefix + upstreamConversationID
}
