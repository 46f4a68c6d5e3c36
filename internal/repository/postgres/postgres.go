package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor is the subset of pgxpool.Pool used by repositories. Both a pool
// and a pgx transaction satisfy it, as does pgxmock in tests.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgBeginner additionally opens transactions; the engagement repository needs
// it for the toggle and share mutations.
type pgBeginner interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}
