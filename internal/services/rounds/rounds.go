package rounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nostrly/crownanchor/internal/game"
	"github.com/nostrly/crownanchor/internal/infra/metrics"
	"github.com/nostrly/crownanchor/internal/infra/pgutils"
	"github.com/nostrly/crownanchor/internal/repos/players"
	pgplayers "github.com/nostrly/crownanchor/internal/repos/players/postgres"
)

// ErrStaleRound rejects a play whose supplied commitment no longer
// matches the live round (double submit, replay, or a missed rotation).
var ErrStaleRound = errors.New("stale round")

var ErrInsufficientCredits = players.ErrInsufficientCredits

// Service is the round orchestrator: it owns the commit/reveal lifecycle
// per player and runs the whole resolving step inside one database
// transaction, so a round can never pay out twice and no intermediate
// state is observable.
type Service struct {
	db             *sql.DB
	players        players.Players
	welcomeCredits int64
}

func New(db *sql.DB, welcomeCredits int64) *Service {
	return &Service{
		db:             db,
		players:        pgplayers.New(db),
		welcomeCredits: welcomeCredits,
	}
}

type LoginResult struct {
	Credits    int64
	Commitment string
}

// PlayResult reveals the resolved round and publishes the next one.
type PlayResult struct {
	Rolls         [game.RollCount]game.Symbol
	Salt          string
	Stake         int64
	Winnings      int64
	Credits       int64
	NewCommitment string
}

// Login returns the player's balance and live commitment, creating the
// player with the configured welcome credits on first login. Both paths
// rotate to a fresh round, discarding any outcome committed before.
func (s *Service) Login(ctx context.Context, pubkey string) (LoginResult, error) {
	round, err := game.NewRound()
	if err != nil {
		return LoginResult{}, fmt.Errorf("commit round: %w", err)
	}

	var result LoginResult

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.players.LockForUpdate(tx, pubkey)
		if errors.Is(err, players.ErrPlayerNotFound) {
			p = players.Player{
				Pubkey:     pubkey,
				Credits:    s.welcomeCredits,
				Commitment: round.Commitment,
				Rolls:      game.EncodeRolls(round.Rolls),
				Salt:       round.Salt,
			}

			cerr := s.players.Create(tx, p)
			if cerr != nil {
				return fmt.Errorf("create player: %w", cerr)
			}

			result = LoginResult{Credits: p.Credits, Commitment: p.Commitment}

			return nil
		}
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		err = s.players.UpdateRound(tx, pubkey, game.EncodeRolls(round.Rolls), round.Salt, round.Commitment)
		if err != nil {
			return fmt.Errorf("rotate round: %w", err)
		}

		result = LoginResult{Credits: p.Credits, Commitment: round.Commitment}

		return nil
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	metrics.Logins.Inc()

	return result, nil
}

// Logout rotates the round so the old commitment can never be played.
func (s *Service) Logout(ctx context.Context, pubkey string) error {
	round, err := game.NewRound()
	if err != nil {
		return fmt.Errorf("commit round: %w", err)
	}

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := s.players.LockForUpdate(tx, pubkey)
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		err = s.players.UpdateRound(tx, pubkey, game.EncodeRolls(round.Rolls), round.Salt, round.Commitment)
		if err != nil {
			return fmt.Errorf("rotate round: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// Play resolves the live round against a bet slip:
//
// 1) Validate the slip (pure, before any transaction).
// 2) In one transaction: lock the player row, check the supplied
//    commitment against the live one, check affordability, settle,
//    write the new balance and a freshly committed round.
//
// The row lock serializes concurrent plays per player; whichever request
// commits first rotates the round, so the loser fails the commitment
// check with ErrStaleRound and no second payout happens.
func (s *Service) Play(ctx context.Context, pubkey, commitment string, slip game.BetSlip) (PlayResult, error) {
	err := slip.Validate()
	if err != nil {
		return PlayResult{}, err
	}

	next, err := game.NewRound()
	if err != nil {
		return PlayResult{}, fmt.Errorf("commit next round: %w", err)
	}

	var result PlayResult

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.players.LockForUpdate(tx, pubkey)
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		if p.Commitment != commitment {
			return ErrStaleRound
		}

		stake := slip.Total()
		if stake > p.Credits {
			return ErrInsufficientCredits
		}

		rolls, err := game.ParseRolls(p.Rolls)
		if err != nil {
			return fmt.Errorf("stored rolls corrupt: %w", err)
		}

		settlement := game.Settle(slip, rolls)

		credits := p.Credits + settlement.Delta()

		err = s.players.SetCredits(tx, pubkey, credits)
		if err != nil {
			return fmt.Errorf("apply settlement: %w", err)
		}

		err = s.players.UpdateRound(tx, pubkey, game.EncodeRolls(next.Rolls), next.Salt, next.Commitment)
		if err != nil {
			return fmt.Errorf("commit next round: %w", err)
		}

		result = PlayResult{
			Rolls:         rolls,
			Salt:          p.Salt,
			Stake:         settlement.Stake,
			Winnings:      settlement.Winnings,
			Credits:       credits,
			NewCommitment: next.Commitment,
		}

		return nil
	})
	if err != nil {
		return PlayResult{}, fmt.Errorf("play: %w", err)
	}

	metrics.RoundsPlayed.Inc()
	metrics.CreditsWagered.Add(float64(result.Stake))
	metrics.CreditsWon.Add(float64(result.Winnings))

	return result, nil
}
