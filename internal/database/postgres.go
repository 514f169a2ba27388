// Package database manages connections to the backing stores and runs
// schema migrations before the service accepts traffic.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/goback-io/goback/internal/config"
)

// OpenPostgres opens the relational store and verifies the connection.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pg := cfg.DB.Postgres
	if pg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pg.MaxOpenConns)
	}
	if pg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pg.MaxIdleConns)
	}
	if pg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(pg.ConnMaxLifetime) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// WaitForPostgres pings the relational store until it responds or attempts
// are exhausted. Used during bootstrap to gate on container readiness.
func WaitForPostgres(ctx context.Context, cfg *config.Config, attempts int, interval time.Duration) (*sqlx.DB, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
		db, err := OpenPostgres(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("postgres not reachable after %d attempts: %w", attempts, lastErr)
}
