package payments

import (
	"context"
	"database/sql"
	"errors"
)

var ErrPaymentNotFound = errors.New("payment not found")
var ErrDuplicatePayment = errors.New("duplicate payment")
var ErrAlreadyCredited = errors.New("payment already credited")

// Payment links an external payment hash to the player it will credit,
// plus the at-most-once crediting marker.
type Payment struct {
	PaymentHash string
	Pubkey      string
	Credited    bool
}

// Payments is the durable payment-reference store. MarkCredited is the
// crux: its conditional update admits exactly one winner per hash, no
// matter how many confirmation polls race.
type Payments interface {
	Insert(tx *sql.Tx, paymentHash, pubkey string) error
	Get(ctx context.Context, paymentHash string) (Payment, error)
	MarkCredited(tx *sql.Tx, paymentHash string) error
}
