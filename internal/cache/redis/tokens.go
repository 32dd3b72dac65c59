// Package redis implements the token cache on a Redis instance. The two
// keys of a pair are written inside one MULTI/EXEC so either both tokens
// are stored or neither is.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

const (
	accessKeyPrefix  = "access:"
	refreshKeyPrefix = "refresh:"
)

var _ model.TokenCache = (*TokenCache)(nil)

type TokenCache struct {
	client     redis.UniversalClient
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCache(client redis.UniversalClient, accessTTL, refreshTTL time.Duration) *TokenCache {
	return &TokenCache{
		client:     client,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SetTokens stores both tokens of the pair with their own expiries in a
// single transaction.
func (c *TokenCache) SetTokens(ctx context.Context, userID uuid.UUID, pair model.TokenPair) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, accessKey(userID), pair.AccessToken, c.accessTTL)
	pipe.Set(ctx, refreshKey(userID), pair.RefreshToken, c.refreshTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token pair: %w", err)
	}
	return nil
}

// DeleteTokens drops both keys of the pair. Missing keys are not an error.
func (c *TokenCache) DeleteTokens(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, accessKey(userID), refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete token pair: %w", err)
	}
	return nil
}

func accessKey(userID uuid.UUID) string {
	return accessKeyPrefix + userID.String()
}

func refreshKey(userID uuid.UUID) string {
	return refreshKeyPrefix + userID.String()
}
