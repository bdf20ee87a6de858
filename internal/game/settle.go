package game

// SymbolResult is the outcome of the bet on one symbol.
type SymbolResult struct {
	Stake    int64
	Matches  int
	Winnings int64
}

// Settlement is the result of resolving one bet slip against one outcome.
type Settlement struct {
	Stake    int64
	Winnings int64
	Symbols  map[Symbol]SymbolResult
}

// Delta is the net balance change: winnings minus stake.
func (s Settlement) Delta() int64 {
	return s.Winnings - s.Stake
}

// Settle resolves a validated slip against the revealed rolls.
//
// Fixed odds: a symbol appearing once pays 2x its stake (stake back plus
// even money), with each additional match adding one more stake, i.e.
// winnings = stake * (matches + 1) when matches > 0, else 0. Bets on
// different symbols win independently against the same three rolls.
//
// The slip must already have passed Validate; Settle has no error path.
func Settle(slip BetSlip, rolls [RollCount]Symbol) Settlement {
	matches := make(map[Symbol]int, RollCount)
	for _, r := range rolls {
		matches[r]++
	}

	out := Settlement{Symbols: make(map[Symbol]SymbolResult, len(slip))}

	for sym, stake := range slip {
		if stake == 0 {
			continue
		}

		m := matches[sym]

		winnings := int64(0)
		if m > 0 {
			winnings = stake * int64(m+1)
		}

		out.Stake += stake
		out.Winnings += winnings
		out.Symbols[sym] = SymbolResult{Stake: stake, Matches: m, Winnings: winnings}
	}

	return out
}
