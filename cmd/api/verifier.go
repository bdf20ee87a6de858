package main

import (
	"log/slog"
	"os"

	"github.com/nostrly/crownanchor/internal/auth"
)

// signatureVerifier picks the identity collaborator: an external
// verification endpoint when AUTH_VERIFIER_URL is set, otherwise the
// insecure development verifier.
func signatureVerifier() auth.SignatureVerifier {
	url := os.Getenv("AUTH_VERIFIER_URL")
	if url == "" {
		slog.Warn("AUTH_VERIFIER_URL not set, accepting unverified signatures")

		return auth.InsecureAllowAll{}
	}

	return auth.NewHTTPVerifier(url)
}
