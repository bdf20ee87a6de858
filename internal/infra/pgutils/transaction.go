package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx wraps op in a transaction. The transaction commits when op
// returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db *sql.DB, op func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = op(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
