// internal/distlock/redis_lease.go
package distlock

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisLease implements Lease via SET NX with a TTL. The value is random so
// a release only deletes a lease we still own; the TTL makes a crashed run
// self-heal instead of wedging its campaign forever.
type RedisLease struct {
    client *redis.Client
    key    string
    value  string
    ttl    time.Duration
}

func NewRedisLease(client *redis.Client, key string, ttl time.Duration) *RedisLease {
    b := make([]byte, 16)
    rand.Read(b)
    return &RedisLease{
        client: client,
        key:    fmt.Sprintf("lease:%s", key),
        value:  hex.EncodeToString(b),
        ttl:    ttl,
    }
}

// Acquire tries to acquire the lease. Returns true if successful.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
    ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
    if err != nil {
        return false, fmt.Errorf("failed to acquire lease %s: %w", l.key, err)
    }
    return ok, nil
}

// Release deletes the lease only if we still own it.
func (l *RedisLease) Release(ctx context.Context) error {
    script := redis.NewScript(`
        if redis.call("get", KEYS[1]) == ARGV[1] then
            return redis.call("del", KEYS[1])
        else
            return 0
        end
    `)
    _, err := script.Run(ctx, l.client, []string{l.key}, l.value).Result()
    return err
}
