package postgres

import (
	"context"
	"database/sql"
	goerrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// withTx executes fn within a transaction, rolling back on error or
// panic.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// isConstraintViolation reports whether err is a uniqueness or
// exclusion constraint violation, the database-level verdict on a
// booking race.
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if !goerrors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" || pqErr.Code == "23P01"
}

func isNoRows(err error) bool {
	return goerrors.Is(err, sql.ErrNoRows)
}
