package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nostrly/crownanchor/internal/repos/players"
)

func (r *playersRepo) Get(ctx context.Context, pubkey string) (players.Player, error) {
	var p players.Player

	err := r.db.QueryRowContext(ctx, `
		SELECT pubkey, credits, current_result_hash, current_rolls, current_randomhash
		FROM players
		WHERE pubkey = $1
	`, pubkey).Scan(&p.Pubkey, &p.Credits, &p.Commitment, &p.Rolls, &p.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return players.Player{}, players.ErrPlayerNotFound
		}

		return players.Player{}, fmt.Errorf("get player: %w", err)
	}

	return p, nil
}
