package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPVerifier delegates signature verification to an external identity
// provider: the raw event is POSTed and any non-200 answer means the
// signature did not check out.
type HTTPVerifier struct {
	url  string
	http *http.Client
}

func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		url:  url,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, rawEvent []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(rawEvent))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return fmt.Errorf("verifier unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signature rejected: status %d", resp.StatusCode)
	}

	return nil
}

// InsecureAllowAll accepts every signature. Development only; the
// freshness and endpoint-binding checks still apply.
type InsecureAllowAll struct{}

func (InsecureAllowAll) Verify(context.Context, []byte) error {
	return nil
}
