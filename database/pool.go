package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/mysqlsvc/logger"
)

// ProbeQuery is the trivial round trip used to check connectivity.
const ProbeQuery = "select 1+1 as result"

// Pool is a connection-pool handle owned by a Service.
type Pool interface {
	// ID identifies this handle; every construction yields a new one.
	ID() uuid.UUID

	// Raw runs query and discards any rows.
	Raw(ctx context.Context, query string) error

	// Release closes every connection. The returned channel yields exactly
	// one value once closure is confirmed; it must never be nil.
	Release() <-chan error

	// MigrationsTable names the table tracking applied migrations.
	MigrationsTable() string
}

// Factory constructs a Pool from a connection config. Construction must not
// require the server to be reachable.
type Factory func(cfg Config, log *logger.Logger) (Pool, error)

// resolved returns an already-settled release result.
func resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
