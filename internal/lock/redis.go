package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix    = "reels:lock:"
	pollInterval = 250 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis coordinates per-id locks across service instances. The ttl bounds how long
// a crashed holder can block others. Keys are not renewed, so a run that outlives
// ttl is no longer exclusive.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logrus.Logger) *Redis {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Redis{client: client, ttl: ttl, log: log}
}

func (r *Redis) Lock(ctx context.Context, id string) (func(), error) {
	key := keyPrefix + id
	token := uuid.NewString()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", id, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() { r.release(key, token) }, nil
}

// release runs on a fresh context so a cancelled request still frees the key.
func (r *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		r.log.WithFields(logrus.Fields{
			"key":   key,
			"ttl":   r.ttl.String(),
			"error": err.Error(),
		}).Warn("Failed to release video lock, it will expire after ttl")
	}
}
