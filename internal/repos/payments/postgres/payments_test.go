package payments

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nostrly/crownanchor/internal/infra/pgtestutil"
	"github.com/nostrly/crownanchor/internal/repos/payments"
)

const (
	testHash   = "ceb1b642bceb1b642bceb1b642bceb1b"
	testPubkey = "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
)

func insertPayment(t *testing.T, db *sql.DB, repo *paymentsRepo) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}

	err = repo.Insert(tx, testHash, testPubkey)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestPayments_InsertAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	insertPayment(t, db, repo)

	got, err := repo.Get(t.Context(), testHash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pubkey != testPubkey || got.Credited {
		t.Fatalf("unexpected payment: %+v", got)
	}

	_, err = repo.Get(t.Context(), "missing")
	if !errors.Is(err, payments.ErrPaymentNotFound) {
		t.Fatalf("want ErrPaymentNotFound, got %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.Insert(tx, testHash, testPubkey)
	if !errors.Is(err, payments.ErrDuplicatePayment) {
		t.Fatalf("duplicate insert: want ErrDuplicatePayment, got %v", err)
	}
}

func TestPayments_MarkCredited_Once(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	insertPayment(t, db, repo)

	mark := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		err = repo.MarkCredited(tx, testHash)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		return tx.Commit()
	}

	err := mark()
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}

	err = mark()
	if !errors.Is(err, payments.ErrAlreadyCredited) {
		t.Fatalf("second mark: want ErrAlreadyCredited, got %v", err)
	}

	got, err := repo.Get(t.Context(), testHash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Credited {
		t.Fatal("payment not marked credited")
	}
}

func TestPayments_MarkCredited_NotFound(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.MarkCredited(tx, "missing")
	if !errors.Is(err, payments.ErrPaymentNotFound) {
		t.Fatalf("want ErrPaymentNotFound, got %v", err)
	}
}

func TestPayments_MarkCredited_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	insertPayment(t, db, repo)

	const attempts = 8

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				results <- err
				return
			}

			err = repo.MarkCredited(tx, testHash)
			if err != nil {
				_ = tx.Rollback()
				results <- err
				return
			}

			results <- tx.Commit()
		}()
	}

	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, payments.ErrAlreadyCredited):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if winners != 1 {
		t.Fatalf("want exactly 1 winner, got %d", winners)
	}
}
