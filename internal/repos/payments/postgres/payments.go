package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nostrly/crownanchor/internal/repos/payments"
)

var _ payments.Payments = (*paymentsRepo)(nil)

type paymentsRepo struct{ db *sql.DB }

func New(db *sql.DB) *paymentsRepo {
	return &paymentsRepo{db: db}
}

func (r *paymentsRepo) Insert(tx *sql.Tx, paymentHash, pubkey string) error {
	_, err := tx.Exec(`
		INSERT INTO payments (payment_hash, pubkey)
		VALUES ($1, $2)
	`, paymentHash, pubkey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return payments.ErrDuplicatePayment
			}
		}

		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func (r *paymentsRepo) Get(ctx context.Context, paymentHash string) (payments.Payment, error) {
	var p payments.Payment

	err := r.db.QueryRowContext(ctx, `
		SELECT payment_hash, pubkey, credited
		FROM payments
		WHERE payment_hash = $1
	`, paymentHash).Scan(&p.PaymentHash, &p.Pubkey, &p.Credited)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payments.Payment{}, payments.ErrPaymentNotFound
		}

		return payments.Payment{}, fmt.Errorf("get payment: %w", err)
	}

	return p, nil
}

// MarkCredited flips the crediting marker uncredited -> credited. The
// WHERE clause makes the flip conditional, so of N racing confirmations
// exactly one sees a row affected; the rest are told the payment was
// already credited (or never existed).
func (r *paymentsRepo) MarkCredited(tx *sql.Tx, paymentHash string) error {
	res, err := tx.Exec(`
		UPDATE payments
		SET credited = TRUE
		WHERE payment_hash = $1
		  AND NOT credited
	`, paymentHash)
	if err != nil {
		return fmt.Errorf("mark credited: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		var credited bool

		err = tx.QueryRow(`
			SELECT credited FROM payments WHERE payment_hash = $1
		`, paymentHash).Scan(&credited)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return payments.ErrPaymentNotFound
			}

			return fmt.Errorf("check payment: %w", err)
		}

		return payments.ErrAlreadyCredited
	}

	return nil
}
