package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
)

const (
	keyPrefix    = "chatbet:lock:"
	pollInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still carries our token, so a
// turn whose lock expired cannot release a lock taken over by another turn.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the ttl of a lock we still hold.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker shared by every server instance using the same Redis.
//
// A held lock is extended every ttl/3 until it is released, so a long turn
// keeps its thread. If the holder dies the lock expires after ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Locker = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := xid.New().String()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("lock: acquiring %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.keepAlive(redisKey, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()

			// The turn's ctx may already be cancelled; release must still run.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("lock release failed, key expires after ttl",
					slog.String("key", redisKey),
					slog.Duration("ttl", r.ttl),
					slog.String("error", err.Error()),
				)
			}
		})
	}, nil
}

// keepAlive extends the lock until stop is closed or the lock is lost.
func (r *Redis) keepAlive(redisKey, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
		held, err := extendScript.Run(ctx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
		cancel()

		switch {
		case err != nil:
			r.logger.Warn("lock extend failed",
				slog.String("key", redisKey),
				slog.String("error", err.Error()),
			)
		case held == 0:
			r.logger.Warn("lock lost before release", slog.String("key", redisKey))
			return
		}
	}
}
