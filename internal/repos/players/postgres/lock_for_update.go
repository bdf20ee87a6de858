package players

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nostrly/crownanchor/internal/repos/players"
)

// LockForUpdate reads the player row under FOR UPDATE. Concurrent plays
// and credits for one player queue up here; other players are untouched.
func (r *playersRepo) LockForUpdate(tx *sql.Tx, pubkey string) (players.Player, error) {
	var p players.Player

	err := tx.QueryRow(`
		SELECT pubkey, credits, current_result_hash, current_rolls, current_randomhash
		FROM players
		WHERE pubkey = $1
		FOR UPDATE
	`, pubkey).Scan(&p.Pubkey, &p.Credits, &p.Commitment, &p.Rolls, &p.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return players.Player{}, players.ErrPlayerNotFound
		}

		return players.Player{}, fmt.Errorf("lock player: %w", err)
	}

	return p, nil
}
