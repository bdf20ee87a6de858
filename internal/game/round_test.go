package game

import (
	"strings"
	"testing"
)

func TestNewRound_CommitmentVerifies(t *testing.T) {
	t.Parallel()

	round, err := NewRound()
	if err != nil {
		t.Fatalf("new round: %v", err)
	}

	if len(round.Salt) != saltBytes*2 {
		t.Fatalf("salt length: want %d hex chars, got %d", saltBytes*2, len(round.Salt))
	}
	if len(round.Commitment) != 64 {
		t.Fatalf("commitment length: want 64 hex chars, got %d", len(round.Commitment))
	}

	if !Verify(round.Rolls, round.Salt, round.Commitment) {
		t.Fatal("commitment does not verify against its own rolls and salt")
	}

	if Verify(round.Rolls, round.Salt+"x", round.Commitment) {
		t.Fatal("commitment verified with a tampered salt")
	}
}

func TestCommitment_KnownVector(t *testing.T) {
	t.Parallel()

	// sha256("spade-heart-crown-<salt>") with a fixed salt; the joined
	// preimage is what a player recomputes client-side at reveal time.
	rolls := [RollCount]Symbol{Spade, Heart, Crown}
	salt := "0123456789abcdef0123456789abcdef"

	got := Commitment(rolls, salt)
	want := "0236530cecac14a2cd2a74b9b9f027ac616811e616b9f2d7d33de7c2a6489851"
	if got != want {
		t.Fatalf("commitment: want %s, got %s", want, got)
	}

	other := Commitment([RollCount]Symbol{Crown, Heart, Spade}, salt)
	if got == other {
		t.Fatal("commitment ignores roll order")
	}
}

func TestNewRound_SaltsIndependent(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for range 32 {
		round, err := NewRound()
		if err != nil {
			t.Fatalf("new round: %v", err)
		}
		if seen[round.Salt] {
			t.Fatalf("duplicate salt across rounds: %s", round.Salt)
		}
		seen[round.Salt] = true
	}
}

func TestRoll_InRange(t *testing.T) {
	t.Parallel()

	for range 64 {
		rolls, err := Roll()
		if err != nil {
			t.Fatalf("roll: %v", err)
		}
		for i, r := range rolls {
			if !r.Valid() {
				t.Fatalf("roll %d out of range: %d", i, int(r))
			}
		}
	}
}

func TestEncodeParseRolls_RoundTrip(t *testing.T) {
	t.Parallel()

	rolls := [RollCount]Symbol{Spade, Crown, Diamond}

	encoded := EncodeRolls(rolls)
	if encoded != "1,5,6" {
		t.Fatalf("encode: want 1,5,6 got %s", encoded)
	}

	got, err := ParseRolls(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != rolls {
		t.Fatalf("round trip mismatch: %v != %v", got, rolls)
	}
}

func TestParseRolls_Rejects(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "1,2", "1,2,3,4", "1,2,7", "1,x,3", "0,1,2"} {
		_, err := ParseRolls(s)
		if err == nil {
			t.Fatalf("parse %q: expected error", s)
		}
	}
}

func TestSymbolNames(t *testing.T) {
	t.Parallel()

	want := "spade-anchor-club-heart-crown-diamond"

	names := make([]string, 0, SymbolCount)
	for s := Spade; s <= Diamond; s++ {
		names = append(names, s.Name())
	}

	if got := strings.Join(names, "-"); got != want {
		t.Fatalf("symbol names: want %s, got %s", want, got)
	}
}
