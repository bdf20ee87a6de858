package players

import (
	"database/sql"
	"fmt"

	"github.com/nostrly/crownanchor/internal/repos/players"
)

// SetCredits writes an absolute balance. Callers compute the new value
// against the row they hold under LockForUpdate; a negative value is
// rejected here and by the column's check constraint.
func (r *playersRepo) SetCredits(tx *sql.Tx, pubkey string, credits int64) error {
	if credits < 0 {
		return players.ErrInsufficientCredits
	}

	res, err := tx.Exec(`
		UPDATE players
		SET credits = $2
		WHERE pubkey = $1
	`, pubkey, credits)
	if err != nil {
		return fmt.Errorf("set credits: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return players.ErrPlayerNotFound
	}

	return nil
}
