package players

import (
	"database/sql"
	"fmt"

	"github.com/nostrly/crownanchor/internal/repos/players"
)

func (r *playersRepo) IncreaseCredits(tx *sql.Tx, pubkey string, amount int64) error {
	res, err := tx.Exec(`
		UPDATE players
		SET credits = credits + $2
		WHERE pubkey = $1
	`, pubkey, amount)
	if err != nil {
		return fmt.Errorf("increase credits: %w", err)
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
