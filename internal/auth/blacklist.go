package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist marks revoked refresh tokens as permanently unusable before
// their natural expiry. Entries live in Redis with a TTL equal to the
// refresh-token lifetime, after which the token is cryptographically dead
// anyway. Only a hash of the token string is stored.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist constructs a Blacklist.
func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Add revokes a token for ttl.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if err := b.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: blacklist add: %w", err)
	}
	return nil
}

// Contains reports whether the token has been revoked.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	err := b.client.Get(ctx, blacklistKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: blacklist get: %w", err)
	}
	return true, nil
}

func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}
