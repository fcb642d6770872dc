// Package database wraps sqlx with an explicit transaction unit-of-work so
// merge commits can be tested against a fake transaction.
package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// DB is the subset of sqlx.DB the repositories use, plus GetTx for opening a
// scoped transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	PingContext(ctx context.Context) error
	Close() error

	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error)
}

type Instance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &Instance{
		DB:     db,
		logger: logger,
	}
}

func (db *Instance) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, Tx, error) {
	return GetTx(ctx, db.logger, db, opts)
}
