package players

import (
	"database/sql"
	"fmt"

	"github.com/nostrly/crownanchor/internal/repos/players"
)

func (r *playersRepo) UpdateRound(tx *sql.Tx, pubkey, rolls, salt, commitment string) error {
	res, err := tx.Exec(`
		UPDATE players
		SET current_result_hash = $2,
		    current_rolls = $3,
		    current_randomhash = $4
		WHERE pubkey = $1
	`, pubkey, commitment, rolls, salt)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
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
