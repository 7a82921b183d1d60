package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// DB is the subset of database/sql the catalog runs statements through.
type DB interface {
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
}

var _ DB = &dbController{}

func newDbController(db *sql.DB) *dbController {
	return &dbController{base: db}
}

// dbController routes statements through the open transaction, if any.
type dbController struct {
	tx   *sql.Tx
	base *sql.DB
}

func (d *dbController) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.QueryContext(ctx, q, args...)
	}

	return d.base.QueryContext(ctx, q, args...)
}

func (d *dbController) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.ExecContext(ctx, q, args...)
	}

	return d.base.ExecContext(ctx, q, args...)
}

func (d *dbController) Begin(ctx context.Context) error {
	if d.tx != nil {
		return errors.New("transaction already started")
	}
	tx, err := d.base.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	d.tx = tx

	return nil
}

func (d *dbController) Commit() error {
	if d.tx == nil {
		return errors.New("no transaction to commit")
	}
	defer func() {
		d.tx = nil
	}()

	return d.tx.Commit()
}

func (d *dbController) Rollback() error {
	if d.tx == nil {
		return errors.New("no transaction to roll back")
	}
	defer func() {
		d.tx = nil
	}()

	return d.tx.Rollback()
}
