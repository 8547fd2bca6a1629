package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist is the session revocation set. Logging out stores
// the access token's jti with a TTL equal to the token's remaining
// lifetime, so entries expire on their own exactly when the token
// would have anyway and the set stays small.
//
// A TokenBlacklist constructed without a redis client degrades
// gracefully: revocations become no-ops and no token is ever reported
// as revoked. That mirrors how rate limiting and caching behave when
// redis is unavailable.
type TokenBlacklist struct {
	rdb    *redis.Client
	prefix string
}

// NewTokenBlacklist returns a blacklist backed by rdb, which may be nil.
func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb, prefix: "revoked"}
}

func (b *TokenBlacklist) key(jti string) string { return b.prefix + ":" + jti }

// Revoke marks a token id as revoked until its expiry. Tokens that
// have already expired need no entry.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if b == nil || b.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, b.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether a token id has been revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if b == nil || b.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
