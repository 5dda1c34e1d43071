// Package db reads and writes Job Applicant records directly in the record
// backend's PostgreSQL database.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
	// loc is the zone the backend writes its zone-less timestamps in.
	loc *time.Location
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, loc *time.Location) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	return &DB{pool: pool, loc: loc}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
