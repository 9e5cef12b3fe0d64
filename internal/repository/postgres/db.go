package postgres

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql used by the repositories. Both
// *sql.DB and *sql.Tx satisfy it, so a repository can run against the
// pool or inside a transaction without knowing which.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
