// Package provider contains clients for the external token data sources.
//
// Every client makes one bounded-timeout request per call and reports any
// failure (transport error, timeout, non-2xx status, malformed payload) as an
// error wrapping apperr.ErrProviderUnavailable. Clients never retry.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/httpclient"
	"solana-swap-gateway/internal/observability"
)

// MetadataSource is one source of partial token metadata.
type MetadataSource interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Fetch returns what the source knows about mint.
	Fetch(ctx context.Context, mint string) (*domain.PartialMetadata, error)
}

// UnavailableError reports that a provider could not answer.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

// Unwrap exposes both the ErrProviderUnavailable sentinel and the cause.
func (e *UnavailableError) Unwrap() []error {
	return []error{apperr.ErrProviderUnavailable, e.Err}
}

func unavailable(provider string, err error) error {
	return &UnavailableError{Provider: provider, Err: err}
}

// maxBodySize bounds provider responses.
const maxBodySize = 4 << 20

// newClient returns the default single-attempt client for a provider.
func newClient(timeout time.Duration) *http.Client {
	return httpclient.NewStandard(httpclient.DefaultOptions(timeout))
}

// getJSON performs a GET request and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, client *http.Client, provider, url string, timeout time.Duration, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := doGetJSON(ctx, client, url, out)
	observability.RecordProviderCall(provider, time.Since(start).Seconds(), err)
	if err != nil {
		return unavailable(provider, err)
	}
	return nil
}

func doGetJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
