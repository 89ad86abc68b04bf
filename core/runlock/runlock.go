package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrRunInProgress is returned when another run holds the lock.
var ErrRunInProgress = errors.New("another run is in progress")

// errLockLost reports that the key expired or was taken over.
var errLockLost = errors.New("run lock lost")

const (
	// DriverLocal serializes runs inside one process.
	DriverLocal = "local"
	// DriverRedis serializes runs across processes sharing a Redis server.
	DriverRedis = "redis"
)

// Locker guards a whole reconciliation run.
type Locker interface {
	// TryAcquire takes the lock without waiting. The returned release must be
	// called exactly once when the run ends.
	TryAcquire(ctx context.Context) (release func(), err error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu sync.Mutex
}

// NewLocal creates an in-process locker.
func NewLocal() *LocalLocker {
	return &LocalLocker{}
}

// TryAcquire implements Locker.
func (l *LocalLocker) TryAcquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the TTL only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker backed by a Redis key with a TTL.
// The TTL bounds how long a crashed holder blocks other processes. While a run
// holds the lock the TTL is refreshed every third of its length, so a run may
// last longer than the TTL.
type RedisLocker struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedis creates a locker on key. A non-positive ttl defaults to one hour.
func NewRedis(client redis.Cmdable, key string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

// TryAcquire implements Locker.
func (l *RedisLocker) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}

	kaCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(kaCtx, l.ttl/3, func(ctx context.Context) error {
			return l.extend(ctx, token)
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
			// The run context may already be canceled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err()
		})
	}, nil
}

func (l *RedisLocker) extend(ctx context.Context, token string) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return errLockLost
	}
	return nil
}

// keepAlive calls refresh every interval until ctx is done or the lock is lost.
// Other refresh errors are retried on the next tick.
func keepAlive(ctx context.Context, every time.Duration, refresh func(context.Context) error) {
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, every)
			err := refresh(rctx)
			cancel()
			if errors.Is(err, errLockLost) {
				return
			}
		}
	}
}

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
