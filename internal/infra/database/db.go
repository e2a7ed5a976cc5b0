package database

import (
	"context"
	"database/sql"
	"fmt"

	"feedback_portal/internal/infra/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewPostgresConnection opens the portal's PostgreSQL pool and fails fast
// when the server cannot be reached within the configured ping timeout.
func NewPostgresConnection(ctx context.Context, dataSourceName string, pool config.DBPoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
