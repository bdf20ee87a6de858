package players

import (
	"context"
	"database/sql"
	"errors"
)

var ErrPlayerNotFound = errors.New("player not found")
var ErrPlayerExists = errors.New("player already exists")
var ErrInsufficientCredits = errors.New("insufficient credits")

// Player is the per-identity row: the credit balance plus the live
// committed round. Exactly one round is live per player at any time.
type Player struct {
	Pubkey     string
	Credits    int64
	Commitment string // published hash of the live round
	Rolls      string // hidden outcome, comma-separated numeric form
	Salt       string // hidden salt, revealed at play time
}

// Players is the durable player store. Methods taking *sql.Tx are meant
// to run inside pgutils.WithTx; LockForUpdate pins the row so every
// mutation of one player's balance or round is serialized.
type Players interface {
	Get(ctx context.Context, pubkey string) (Player, error)
	Create(tx *sql.Tx, p Player) error
	LockForUpdate(tx *sql.Tx, pubkey string) (Player, error)
	UpdateRound(tx *sql.Tx, pubkey, rolls, salt, commitment string) error
	SetCredits(tx *sql.Tx, pubkey string, credits int64) error
	IncreaseCredits(tx *sql.Tx, pubkey string, amount int64) error
}
