package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Distributed interface {
	// TryRun runs safeCode when the lock for key is free. Locked is false when
	// another holder owns the key, safeCode is not called then
	TryRun(ctx context.Context, key string, ttl time.Duration, safeCode func(ctx context.Context) error) (locked bool, err error)
}

func NewDistributed(client *redis.Client) Distributed {
	return &redisLock{
		client: client,
		prefix: "lock:",
	}
}

type redisLock struct {
	client *redis.Client
	prefix string
}

func (l *redisLock) TryRun(ctx context.Context, key string, ttl time.Duration, safeCode func(ctx context.Context) error) (bool, error) {
	token := uuid.New().String()
	fullKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "lock acquire failed")
	}
	if !ok {
		return false, nil
	}
	defer func() {
		// released with a fresh context so a cancelled job still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}()
	return true, safeCode(ctx)
}
