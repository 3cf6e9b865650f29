package adminauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veloria/admin-api/pkg/database"
)

// ReplayGuard remembers TOTP codes that already satisfied a challenge.
// Challenges are single-use, but without this a captured code could
// satisfy a second challenge inside the same drift span.
type ReplayGuard interface {
	// MarkUsed records (account, code) for ttl. Returns false when the
	// pair was already recorded.
	MarkUsed(ctx context.Context, accountID uuid.UUID, code string, ttl time.Duration) (bool, error)
}

type redisReplayGuard struct {
	client *redis.Client
}

// NewRedisReplayGuard builds a guard on Redis SET NX with expiry.
func NewRedisReplayGuard(client *redis.Client) ReplayGuard {
	return &redisReplayGuard{client: client}
}

func (g *redisReplayGuard) MarkUsed(ctx context.Context, accountID uuid.UUID, code string, ttl time.Duration) (bool, error) {
	key := database.KeyPrefixUsedOTP + accountID.String() + ":" + code
	return g.client.SetNX(ctx, key, 1, ttl).Result()
}

type nopReplayGuard struct{}

// NewNopReplayGuard accepts every code. For deployments without Redis.
func NewNopReplayGuard() ReplayGuard {
	return nopReplayGuard{}
}

func (nopReplayGuard) MarkUsed(context.Context, uuid.UUID, string, time.Duration) (bool, error) {
	return true, nil
}
