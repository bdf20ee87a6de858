// Package deposits reconciles external Lightning payments into ledger
// credits. The settlement oracle is queried outside any transaction; the
// marker flip and the credit run together inside one, so a payment is
// applied to a balance at most once no matter how often or how
// concurrently its confirmation is polled.
package deposits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nostrly/crownanchor/internal/infra/metrics"
	"github.com/nostrly/crownanchor/internal/infra/pgutils"
	"github.com/nostrly/crownanchor/internal/lightning"
	"github.com/nostrly/crownanchor/internal/repos/payments"
	pgpayments "github.com/nostrly/crownanchor/internal/repos/payments/postgres"
	"github.com/nostrly/crownanchor/internal/repos/players"
	pgplayers "github.com/nostrly/crownanchor/internal/repos/players/postgres"
)

var ErrPaymentNotFound = payments.ErrPaymentNotFound
var ErrPlayerNotFound = players.ErrPlayerNotFound

// PaymentNetwork is the external collaborator issuing invoices and
// answering settlement queries.
type PaymentNetwork interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (lightning.Invoice, error)
	CheckSettlement(ctx context.Context, token string) (lightning.Settlement, error)
}

type Service struct {
	db       *sql.DB
	players  players.Players
	payments payments.Payments

	network         PaymentNetwork // nil means fallback mode
	satsPerCredit   int64
	fallbackCredits int64
}

func New(db *sql.DB, network PaymentNetwork, satsPerCredit, fallbackCredits int64) *Service {
	return &Service{
		db:              db,
		players:         pgplayers.New(db),
		payments:        pgpayments.New(db),
		network:         network,
		satsPerCredit:   satsPerCredit,
		fallbackCredits: fallbackCredits,
	}
}

// RequestResult is either an invoice to pay or, in fallback mode, the
// balance after a direct grant.
type RequestResult struct {
	Fallback bool
	Credits  int64 // new balance, fallback mode only
	Invoice  lightning.Invoice
}

// Request creates an invoice for the player, recording the payment hash
// to player link so a later confirmation knows whom to credit. Without a
// configured network it grants the fallback credits directly.
func (s *Service) Request(ctx context.Context, pubkey string, amountSats int64, memo string) (RequestResult, error) {
	if amountSats <= 0 && s.network != nil {
		return RequestResult{}, fmt.Errorf("invalid deposit amount: %d", amountSats)
	}

	if s.network == nil {
		return s.grantFallback(ctx, pubkey)
	}

	invoice, err := s.network.CreateInvoice(ctx, amountSats, memo)
	if err != nil {
		return RequestResult{}, fmt.Errorf("create invoice: %w", err)
	}

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.payments.Insert(tx, invoice.PaymentHash, pubkey)
	})
	if err != nil {
		return RequestResult{}, fmt.Errorf("record payment: %w", err)
	}

	return RequestResult{Invoice: invoice}, nil
}

func (s *Service) grantFallback(ctx context.Context, pubkey string) (RequestResult, error) {
	var credits int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.players.LockForUpdate(tx, pubkey)
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		err = s.players.IncreaseCredits(tx, pubkey, s.fallbackCredits)
		if err != nil {
			return fmt.Errorf("grant credits: %w", err)
		}

		credits = p.Credits + s.fallbackCredits

		return nil
	})
	if err != nil {
		return RequestResult{}, fmt.Errorf("fallback grant: %w", err)
	}

	slog.Info("fallback deposit granted", "pubkey", pubkey, "credits", s.fallbackCredits)

	return RequestResult{Fallback: true, Credits: credits}, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusCredited Status = "credited"
)

type Outcome struct {
	Status  Status
	Credits int64 // balance after (or unchanged if already credited)
}

// ConfirmAndCredit checks the oracle for the invoice behind token and,
// if settled, credits the linked player exactly once. Repeat calls after
// crediting return the current balance unchanged; that is a success, not
// an error. Pending is a normal outcome the caller retries later.
func (s *Service) ConfirmAndCredit(ctx context.Context, pubkey, token string) (Outcome, error) {
	if s.network == nil {
		return Outcome{}, ErrPaymentNotFound
	}

	// Oracle query runs before, and outside, the crediting transaction.
	settlement, err := s.network.CheckSettlement(ctx, token)
	if err != nil {
		if errors.Is(err, lightning.ErrInvoiceNotFound) {
			return Outcome{}, ErrPaymentNotFound
		}

		return Outcome{}, fmt.Errorf("check settlement: %w", err)
	}

	record, err := s.payments.Get(ctx, settlement.PaymentHash)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup payment: %w", err)
	}

	if record.Pubkey != pubkey {
		// Token belongs to someone else's deposit; treat as unknown.
		return Outcome{}, ErrPaymentNotFound
	}

	if !settlement.Settled {
		return Outcome{Status: StatusPending}, nil
	}

	credits := settlement.AmountSats / s.satsPerCredit

	var outcome Outcome
	var applied bool

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.payments.MarkCredited(tx, settlement.PaymentHash)
		if errors.Is(err, payments.ErrAlreadyCredited) {
			p, gerr := s.players.LockForUpdate(tx, pubkey)
			if gerr != nil {
				return fmt.Errorf("lock player: %w", gerr)
			}

			outcome = Outcome{Status: StatusCredited, Credits: p.Credits}

			return nil
		}
		if err != nil {
			return fmt.Errorf("mark credited: %w", err)
		}

		p, err := s.players.LockForUpdate(tx, pubkey)
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		err = s.players.IncreaseCredits(tx, pubkey, credits)
		if err != nil {
			return fmt.Errorf("apply credit: %w", err)
		}

		outcome = Outcome{Status: StatusCredited, Credits: p.Credits + credits}
		applied = true

		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("credit payment: %w", err)
	}

	if applied {
		metrics.DepositsCredited.Inc()
		slog.Info("deposit credited", "payment_hash", settlement.PaymentHash, "credits", credits)
	}

	return outcome, nil
}
