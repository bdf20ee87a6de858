package game

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// RollCount is the number of dice thrown per round.
const RollCount = 3

// saltBytes is the entropy of the per-round salt. The salt keeps the
// commitment from being brute-forced out of the small outcome space
// (6^3 = 216) before reveal.
const saltBytes = 16

// Round is the committed but not yet revealed state of one play.
// The commitment is published to the player before bets are accepted;
// rolls and salt stay server-side until the round resolves.
type Round struct {
	Rolls      [RollCount]Symbol
	Salt       string
	Commitment string
}

// Roll draws the round's dice from crypto/rand. A failing random source
// is an error, never a fallback to a predictable one.
func Roll() ([RollCount]Symbol, error) {
	var rolls [RollCount]Symbol

	for i := range rolls {
		n, err := rand.Int(rand.Reader, big.NewInt(SymbolCount))
		if err != nil {
			return rolls, fmt.Errorf("draw symbol: %w", err)
		}

		rolls[i] = Symbol(n.Int64() + 1)
	}

	return rolls, nil
}

// NewSalt returns a fresh hex-encoded salt. Salts are independent draws
// per round; nothing is derived from earlier rounds.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)

	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// Commitment computes the hash published before bets are accepted:
// sha256 over the dash-joined symbol names followed by the salt.
func Commitment(rolls [RollCount]Symbol, salt string) string {
	names := make([]string, 0, RollCount)
	for _, r := range rolls {
		names = append(names, r.Name())
	}

	sum := sha256.Sum256([]byte(strings.Join(names, "-") + "-" + salt))

	return hex.EncodeToString(sum[:])
}

// NewRound draws rolls and a salt and commits to them.
func NewRound() (Round, error) {
	rolls, err := Roll()
	if err != nil {
		return Round{}, fmt.Errorf("roll: %w", err)
	}

	salt, err := NewSalt()
	if err != nil {
		return Round{}, fmt.Errorf("salt: %w", err)
	}

	return Round{
		Rolls:      rolls,
		Salt:       salt,
		Commitment: Commitment(rolls, salt),
	}, nil
}

// Verify recomputes the commitment from a revealed outcome and salt.
func Verify(rolls [RollCount]Symbol, salt, commitment string) bool {
	return Commitment(rolls, salt) == commitment
}

// EncodeRolls renders rolls as the comma-separated numeric form stored in
// the player row, e.g. "1,4,5".
func EncodeRolls(rolls [RollCount]Symbol) string {
	parts := make([]string, 0, RollCount)
	for _, r := range rolls {
		parts = append(parts, strconv.Itoa(int(r)))
	}

	return strings.Join(parts, ",")
}

// ParseRolls parses the stored comma-separated form back into rolls.
func ParseRolls(s string) ([RollCount]Symbol, error) {
	var rolls [RollCount]Symbol

	parts := strings.Split(s, ",")
	if len(parts) != RollCount {
		return rolls, fmt.Errorf("want %d rolls, got %d", RollCount, len(parts))
	}

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return rolls, fmt.Errorf("parse roll %q: %w", p, err)
		}

		sym, err := ParseSymbol(n)
		if err != nil {
			return rolls, fmt.Errorf("roll %d: %w", i, err)
		}

		rolls[i] = sym
	}

	return rolls, nil
}
