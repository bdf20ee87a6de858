package lightning

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenKey = "test-token-key"
const paymentHash = "ceb1b642bceb1b642bceb1b642bceb1b"

func mintToken(t *testing.T, rHash string, amount int64) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"r_hash": rHash,
		"amount": amount,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(tokenKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return signed
}

func TestCreateInvoice(t *testing.T) {
	t.Parallel()

	signed := mintToken(t, paymentHash, 500)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invoices" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req["amount"] != float64(500) || req["memo"] != "deposit" {
			t.Errorf("unexpected payload: %v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":           signed,
			"payment_request": "lnbc1example",
			"amount":          500,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, tokenKey)

	invoice, err := client.CreateInvoice(t.Context(), 500, "deposit")
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if invoice.PaymentHash != paymentHash {
		t.Fatalf("payment hash: want %s, got %s", paymentHash, invoice.PaymentHash)
	}
	if invoice.PaymentRequest != "lnbc1example" || invoice.AmountSats != 500 {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
}

func TestCheckSettlement_StatusMapping(t *testing.T) {
	t.Parallel()

	signed := mintToken(t, paymentHash, 100)

	tests := []struct {
		name        string
		status      int
		wantSettled bool
		wantErr     error
	}{
		{name: "settled", status: http.StatusOK, wantSettled: true},
		{name: "pending_is_not_an_error", status: http.StatusPaymentRequired},
		{name: "unknown_invoice", status: http.StatusNotFound, wantErr: ErrInvoiceNotFound},
		{name: "oracle_failure_is_retryable", status: http.StatusInternalServerError, wantErr: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/invoices/verify" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}

				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := New(srv.URL, tokenKey)

			settlement, err := client.CheckSettlement(t.Context(), signed)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("check settlement: %v", err)
			}
			if settlement.Settled != tt.wantSettled {
				t.Fatalf("settled: want %v, got %v", tt.wantSettled, settlement.Settled)
			}
			if settlement.PaymentHash != paymentHash {
				t.Fatalf("payment hash: want %s, got %s", paymentHash, settlement.PaymentHash)
			}
			if tt.wantSettled && settlement.AmountSats != 100 {
				t.Fatalf("amount: want 100, got %d", settlement.AmountSats)
			}
		})
	}
}

func TestCheckSettlement_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	client := New("http://unused.invalid", tokenKey)

	// Signed with the wrong key.
	wrong := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"r_hash": paymentHash,
		"amount": 100,
	})

	signed, err := wrong.SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = client.CheckSettlement(t.Context(), signed)
	if err == nil {
		t.Fatal("token with wrong signature accepted")
	}

	_, err = client.CheckSettlement(t.Context(), "garbage")
	if err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestUnreachableNetwork(t *testing.T) {
	t.Parallel()

	signed := mintToken(t, paymentHash, 100)

	client := New("http://127.0.0.1:1", tokenKey)

	_, err := client.CheckSettlement(t.Context(), signed)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
