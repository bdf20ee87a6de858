package game

import (
	"errors"
	"fmt"
)

var ErrInvalidBetSlip = errors.New("invalid bet slip")

// BetSlip maps a symbol to the credits staked on it for one round.
type BetSlip map[Symbol]int64

// Validate enforces the slip schema before any settlement or ledger work:
// every key must be a known symbol (unknown keys are rejected, not
// ignored), no stake may be negative, and the total must be positive.
func (b BetSlip) Validate() error {
	total := int64(0)

	for sym, stake := range b {
		if !sym.Valid() {
			return fmt.Errorf("%w: unknown symbol %d", ErrInvalidBetSlip, int(sym))
		}

		if stake < 0 {
			return fmt.Errorf("%w: negative stake %d on %s", ErrInvalidBetSlip, stake, sym.Name())
		}

		total += stake
	}

	if total <= 0 {
		return fmt.Errorf("%w: no bets placed", ErrInvalidBetSlip)
	}

	return nil
}

// Total returns the combined stake across all symbols.
func (b BetSlip) Total() int64 {
	total := int64(0)
	for _, stake := range b {
		total += stake
	}

	return total
}
