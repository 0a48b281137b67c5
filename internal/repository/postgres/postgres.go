// Package postgres holds the pooled connection to the hosted Postgres database
// and a generic query helper.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// Pool is a pooled connection to Postgres. A zero Pool (nil DB) reports
// domain.ErrNotConfigured from every call.
type Pool struct {
	DB *sql.DB
}

// Open connects to the database at dsn. An empty dsn yields an unconfigured pool
// rather than an error so the rest of the server can still start.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return &Pool{}, nil
	}

	db, err := sql.Open("postgres", withDefaultSSLMode(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{DB: db}, nil
}

// Configured reports whether a database connection string was supplied.
func (p *Pool) Configured() bool {
	return p != nil && p.DB != nil
}

// Query runs parameterized SQL text with positional arguments ($1, $2, ...).
// The caller must close the returned rows.
func (p *Pool) Query(ctx context.Context, text string, args ...any) (*sql.Rows, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("postgres: %w", domain.ErrNotConfigured)
	}
	rows, err := p.DB.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

// Ping checks connectivity with a trivial query through Query.
func (p *Pool) Ping(ctx context.Context) error {
	rows, err := p.Query(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// Close closes the pool if it is open.
func (p *Pool) Close() error {
	if !p.Configured() {
		return nil
	}
	return p.DB.Close()
}

// withDefaultSSLMode adds sslmode=require unless the DSN already sets one.
// The hosted database only accepts TLS connections.
func withDefaultSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return strings.TrimSpace(dsn) + " sslmode=require"
	}
	q := u.Query()
	q.Set("sslmode", "require")
	u.RawQuery = q.Encode()
	return u.String()
}
