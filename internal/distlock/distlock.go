// internal/distlock/distlock.go
package distlock

import (
    "context"
    "database/sql"
    "fmt"
    "hash/fnv"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// Lease is a time-bounded exclusive claim on a campaign. The scheduler
// acquires it before a run and skips campaigns whose lease is held, so two
// runs of the same campaign never overlap.
type Lease interface {
    // Acquire tries to acquire the lease. Returns true if successful.
    Acquire(ctx context.Context) (bool, error)
    // Release releases the lease if we still own it.
    Release(ctx context.Context) error
}

// Factory builds a lease for one campaign id.
type Factory func(campaignID uuid.UUID) Lease

// NewFactory returns a lease factory using the best available backend.
// A non-nil Redis client is preferred (cross-host); otherwise Postgres
// advisory locks are used, which release automatically if the session drops.
func NewFactory(redisClient *redis.Client, db *sql.DB, ttl time.Duration) Factory {
    return func(campaignID uuid.UUID) Lease {
        key := fmt.Sprintf("campaign:%s", campaignID)
        if redisClient != nil {
            return NewRedisLease(redisClient, key, ttl)
        }
        return NewPGAdvisoryLease(db, key)
    }
}

// PGAdvisoryLease implements Lease using pg_try_advisory_lock with a lock id
// derived from the key. Advisory locks are session-scoped, so the lock and
// the unlock must run on the same connection: Acquire pins one out of the
// pool for the lease lifetime and Release unlocks on it before returning it.
// The lock also dies with the session, so a crashed holder cannot wedge its
// campaign.
type PGAdvisoryLease struct {
    db     *sql.DB
    lockID int64
    conn   *sql.Conn
}

func NewPGAdvisoryLease(db *sql.DB, key string) *PGAdvisoryLease {
    h := fnv.New64a()
    h.Write([]byte(key))
    return &PGAdvisoryLease{
        db:     db,
        lockID: int64(h.Sum64()),
    }
}

// Acquire is non-blocking: pg_try_advisory_lock returns immediately. The
// pinned connection is kept only when the lock was taken.
func (l *PGAdvisoryLease) Acquire(ctx context.Context) (bool, error) {
    conn, err := l.db.Conn(ctx)
    if err != nil {
        return false, err
    }

    var acquired bool
    if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
        conn.Close()
        return false, err
    }
    if !acquired {
        conn.Close()
        return false, nil
    }

    l.conn = conn
    return true, nil
}

// Release unlocks on the pinned connection. Releasing a lease that was never
// acquired is a no-op.
func (l *PGAdvisoryLease) Release(ctx context.Context) error {
    if l.conn == nil {
        return nil
    }
    _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
    if cerr := l.conn.Close(); err == nil {
        err = cerr
    }
    l.conn = nil
    return err
}
