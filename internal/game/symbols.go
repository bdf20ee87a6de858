package game

import "fmt"

// Symbol is one face of a Crown & Anchor die, numbered 1..6.
type Symbol int

const (
	Spade Symbol = iota + 1
	Anchor
	Club
	Heart
	Crown
	Diamond
)

// SymbolCount is the size of the die alphabet.
const SymbolCount = 6

var symbolNames = map[Symbol]string{
	Spade:   "spade",
	Anchor:  "anchor",
	Club:    "club",
	Heart:   "heart",
	Crown:   "crown",
	Diamond: "diamond",
}

func (s Symbol) Valid() bool {
	return s >= Spade && s <= Diamond
}

func (s Symbol) Name() string {
	name, ok := symbolNames[s]
	if !ok {
		return fmt.Sprintf("symbol(%d)", int(s))
	}

	return name
}

// ParseSymbol converts a numeric symbol key (as sent by clients) to a Symbol.
func ParseSymbol(n int) (Symbol, error) {
	s := Symbol(n)
	if !s.Valid() {
		return 0, fmt.Errorf("symbol out of range: %d", n)
	}

	return s, nil
}
