package domain

import "context"

// Store is a database connection held open for the life of the server.
type Store interface {
	Ping(ctx context.Context) error
	Close() error
}

// MigratingStore is a Store that owns its schema and brings it up to date
// on startup.
type MigratingStore interface {
	Store
	Migrate(ctx context.Context) error
}
