// Package lightning talks to the invoice publisher backing deposits.
// The publisher issues a signed token per invoice; this client creates
// invoices and polls their settlement, decoding the token for the
// payment hash and amount. It implements no Lightning protocol itself.
package lightning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvoiceNotFound = errors.New("invoice not found")
var ErrUnavailable = errors.New("payment network unavailable")

// Invoice is a payable created on the network.
type Invoice struct {
	Token          string
	PaymentRequest string
	AmountSats     int64
	PaymentHash    string
}

// Settlement is the oracle's answer for one invoice.
type Settlement struct {
	Settled     bool
	AmountSats  int64
	PaymentHash string
}

type Client struct {
	baseURL  string
	tokenKey []byte
	http     *http.Client
}

func New(baseURL, tokenKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		tokenKey: []byte(tokenKey),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenClaims struct {
	RHash  string `json:"r_hash"`
	Amount int64  `json:"amount"`
	jwt.RegisteredClaims
}

// decodeToken verifies the publisher's HMAC token and extracts the
// payment hash and amount bound into it.
func (c *Client) decodeToken(token string) (tokenClaims, error) {
	var claims tokenClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return c.tokenKey, nil
	})
	if err != nil {
		return tokenClaims{}, fmt.Errorf("parse invoice token: %w", err)
	}

	if claims.RHash == "" {
		return tokenClaims{}, errors.New("invoice token has no payment hash")
	}

	return claims, nil
}

type createInvoiceRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Memo     string `json:"memo"`
}

type createInvoiceResponse struct {
	Token          string `json:"token"`
	PaymentRequest string `json:"payment_request"`
	Amount         int64  `json:"amount"`
}

// CreateInvoice asks the network for an invoice of amountSats.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64, memo string) (Invoice, error) {
	body, err := json.Marshal(createInvoiceRequest{
		Amount:   amountSats,
		Currency: "btc",
		Memo:     memo,
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.post(ctx, "/invoices", body)
	if err != nil {
		return Invoice{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Invoice{}, fmt.Errorf("%w: create invoice status %d", ErrUnavailable, resp.StatusCode)
	}

	var out createInvoiceResponse

	err = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)
	if err != nil {
		return Invoice{}, fmt.Errorf("decode response: %w", err)
	}

	claims, err := c.decodeToken(out.Token)
	if err != nil {
		return Invoice{}, err
	}

	return Invoice{
		Token:          out.Token,
		PaymentRequest: out.PaymentRequest,
		AmountSats:     out.Amount,
		PaymentHash:    claims.RHash,
	}, nil
}

type verifyRequest struct {
	Token string `json:"token"`
}

// CheckSettlement polls the oracle for one invoice. A 402 means the
// invoice exists but is unpaid; that is a normal, retryable outcome, not
// an error. The settled amount comes from the token, which the publisher
// signed at issue time.
func (c *Client) CheckSettlement(ctx context.Context, token string) (Settlement, error) {
	claims, err := c.decodeToken(token)
	if err != nil {
		return Settlement{}, err
	}

	body, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return Settlement{}, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.post(ctx, "/invoices/verify", body)
	if err != nil {
		return Settlement{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Settlement{
			Settled:     true,
			AmountSats:  claims.Amount,
			PaymentHash: claims.RHash,
		}, nil
	case http.StatusPaymentRequired:
		return Settlement{Settled: false, PaymentHash: claims.RHash}, nil
	case http.StatusNotFound:
		return Settlement{}, ErrInvoiceNotFound
	default:
		return Settlement{}, fmt.Errorf("%w: verify status %d", ErrUnavailable, resp.StatusCode)
	}
}

// PaymentHash decodes the token without touching the network.
func (c *Client) PaymentHash(token string) (string, error) {
	claims, err := c.decodeToken(token)
	if err != nil {
		return "", err
	}

	return claims.RHash, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return resp, nil
}
