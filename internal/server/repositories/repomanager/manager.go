// Package repomanager vends repository implementations for the configured
// storage backend and owns its lifecycle (migrations, readiness, shutdown).
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// WithTx runs fn with repositories bound to a single transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
