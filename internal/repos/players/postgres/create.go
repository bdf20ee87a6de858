package players

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nostrly/crownanchor/internal/repos/players"
)

func (r *playersRepo) Create(tx *sql.Tx, p players.Player) error {
	_, err := tx.Exec(`
		INSERT INTO players (pubkey, credits, current_result_hash, current_rolls, current_randomhash)
		VALUES ($1, $2, $3, $4, $5)
	`, p.Pubkey, p.Credits, p.Commitment, p.Rolls, p.Salt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return players.ErrPlayerExists
			}
		}

		return fmt.Errorf("insert player: %w", err)
	}

	return nil
}
