// Package auth validates login assertions: signed, single-use event
// envelopes binding a public key to this service's endpoint within a
// short freshness window. The signature primitive itself lives behind
// SignatureVerifier; this package enforces everything around it.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrAuthenticationFailed = errors.New("authentication failed")

// httpAuthKind is the event kind reserved for HTTP auth assertions.
const httpAuthKind = 27235

// maxAge is the assertion freshness window.
const maxAge = 60 * time.Second

// Assertion is the signed envelope a client presents at login.
type Assertion struct {
	ID        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Tag returns the second element of the first tag whose first element is
// name, or "" when absent.
func (a Assertion) Tag(name string) string {
	for _, tag := range a.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}

	return ""
}

// SignatureVerifier proves the assertion was signed by its pubkey. It is
// the identity-scheme collaborator; implementations live outside this
// core.
type SignatureVerifier interface {
	Verify(ctx context.Context, rawEvent []byte) error
}

type Authenticator struct {
	verifier    SignatureVerifier
	endpointURL string
	now         func() time.Time
}

func New(verifier SignatureVerifier, endpointURL string) *Authenticator {
	return &Authenticator{
		verifier:    verifier,
		endpointURL: endpointURL,
		now:         time.Now,
	}
}

// Authenticate checks a base64-encoded assertion and returns the
// verified pubkey. Checks, in order: envelope decodes, signature
// verifies, kind matches, assertion is fresh (within maxAge, no future
// timestamps), and the u/method tags bind it to this endpoint so it
// cannot be replayed against another service. Every failure maps to
// ErrAuthenticationFailed with the cause wrapped.
func (a *Authenticator) Authenticate(ctx context.Context, payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: decode payload: %v", ErrAuthenticationFailed, err)
	}

	var assertion Assertion

	err = json.Unmarshal(raw, &assertion)
	if err != nil {
		return "", fmt.Errorf("%w: parse event: %v", ErrAuthenticationFailed, err)
	}

	err = a.verifier.Verify(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("%w: verify signature: %v", ErrAuthenticationFailed, err)
	}

	if assertion.Kind != httpAuthKind {
		return "", fmt.Errorf("%w: unexpected kind %d", ErrAuthenticationFailed, assertion.Kind)
	}

	age := a.now().Sub(time.Unix(assertion.CreatedAt, 0))
	if age > maxAge || age < -maxAge {
		return "", fmt.Errorf("%w: assertion expired", ErrAuthenticationFailed)
	}

	if assertion.Tag("u") != a.endpointURL {
		return "", fmt.Errorf("%w: endpoint mismatch", ErrAuthenticationFailed)
	}

	if assertion.Tag("method") != "POST" {
		return "", fmt.Errorf("%w: method mismatch", ErrAuthenticationFailed)
	}

	if !ValidPubkey(assertion.Pubkey) {
		return "", fmt.Errorf("%w: malformed pubkey", ErrAuthenticationFailed)
	}

	return assertion.Pubkey, nil
}

// ValidPubkey reports whether s is a 64-char lowercase hex key.
func ValidPubkey(s string) bool {
	if len(s) != 64 {
		return false
	}

	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}

	return true
}
