package lease

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/lease"
	"time"

	"github.com/go-redis/redis/v9"
)

const keyPrefix = "snoozer::lease::"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	redisClient *redis.Client
}

func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic(e.NewNilArgumentError("redisClient"))
	}
	return &Redis{redisClient: redisClient}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (lease.Lease, error) {
	owner, err := randomOwner()
	if err != nil {
		return nil, err
	}
	k := keyPrefix + key
	ok, err := r.redisClient.SetNX(ctx, k, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("could not acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, lease.ErrLeaseHeld
	}
	return &redisLease{client: r.redisClient, key: k, owner: owner}, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	owner  string
}

// Release deletes the key only while it still belongs to this holder.
func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("could not release lease: %w", err)
	}
	return nil
}

func randomOwner() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
