// internal/db/db.go
package db

import (
    "database/sql"
    "fmt"

    _ "github.com/lib/pq"

    "github.com/unclebandit/outreach-backend/internal/config"
)

// Open connects to Postgres using the given config and verifies the
// connection with a ping.
func Open(cfg *config.Config) (*sql.DB, error) {
    conn, err := sql.Open("postgres", cfg.DSN())
    if err != nil {
        return nil, fmt.Errorf("failed to connect to DB: %w", err)
    }

    if err := conn.Ping(); err != nil {
        conn.Close()
        return nil, fmt.Errorf("failed to ping DB: %w", err)
    }

    return conn, nil
}
