package distlock

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })
    return client, mr
}

func TestRedisLeaseExcludesSecondHolder(t *testing.T) {
    client, _ := newRedisClient(t)
    ctx := context.Background()

    first := NewRedisLease(client, "campaign:abc", time.Minute)
    second := NewRedisLease(client, "campaign:abc", time.Minute)

    ok, err := first.Acquire(ctx)
    require.NoError(t, err)
    assert.True(t, ok)

    ok, err = second.Acquire(ctx)
    require.NoError(t, err)
    assert.False(t, ok)

    require.NoError(t, first.Release(ctx))

    ok, err = second.Acquire(ctx)
    require.NoError(t, err)
    assert.True(t, ok)
}

func TestRedisLeaseReleaseOnlyDeletesOwnLease(t *testing.T) {
    client, _ := newRedisClient(t)
    ctx := context.Background()

    owner := NewRedisLease(client, "campaign:abc", time.Minute)
    stale := NewRedisLease(client, "campaign:abc", time.Minute)

    ok, err := owner.Acquire(ctx)
    require.NoError(t, err)
    require.True(t, ok)

    // A lease that never acquired must not free the owner's claim.
    require.NoError(t, stale.Release(ctx))

    ok, err = stale.Acquire(ctx)
    require.NoError(t, err)
    assert.False(t, ok)
}

func TestRedisLeaseExpiresAfterTTL(t *testing.T) {
    client, mr := newRedisClient(t)
    ctx := context.Background()

    crashed := NewRedisLease(client, "campaign:abc", time.Minute)
    ok, err := crashed.Acquire(ctx)
    require.NoError(t, err)
    require.True(t, ok)

    // The holder crashed without releasing; the TTL self-heals the lease.
    mr.FastForward(2 * time.Minute)

    next := NewRedisLease(client, "campaign:abc", time.Minute)
    ok, err = next.Acquire(ctx)
    require.NoError(t, err)
    assert.True(t, ok)
}

func TestFactoryPrefersRedis(t *testing.T) {
    client, _ := newRedisClient(t)

    factory := NewFactory(client, nil, time.Minute)
    lease := factory(uuid.New())

    _, ok := lease.(*RedisLease)
    assert.True(t, ok)
}

func TestFactoryFallsBackToPostgres(t *testing.T) {
    factory := NewFactory(nil, nil, time.Minute)
    lease := factory(uuid.New())

    _, ok := lease.(*PGAdvisoryLease)
    assert.True(t, ok)
}

func TestFactoryScopesLeasePerCampaign(t *testing.T) {
    client, _ := newRedisClient(t)
    ctx := context.Background()

    factory := NewFactory(client, nil, time.Minute)
    a := factory(uuid.New())
    b := factory(uuid.New())

    ok, err := a.Acquire(ctx)
    require.NoError(t, err)
    require.True(t, ok)

    // Distinct campaigns never contend.
    ok, err = b.Acquire(ctx)
    require.NoError(t, err)
    assert.True(t, ok)
}
