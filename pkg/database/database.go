package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TransactionManager starts transactions for the domain services.
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx so repositories can share
// query code between transactional and non-transactional paths.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
