package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RelayFetcher asks one relay for events it hasn't delivered before. The
// real pub/sub relay protocol is an external collaborator out of scope for
// this service; RelayFetcher is the seam that keeps the wire format
// swappable without this package pretending to speak it.
type RelayFetcher interface {
	Fetch(ctx context.Context, relayURL string) ([]RawEvent, error)
}

// httpRelayFetcher issues one GET per relay per poll, expecting a JSON
// array of RawEvent. It is the default, minimal stand-in for the real
// relay client.
type httpRelayFetcher struct {
	client *http.Client
}

// NewHTTPRelayFetcher builds a RelayFetcher backed by net/http with the
// given per-request timeout.
func NewHTTPRelayFetcher(timeout time.Duration) RelayFetcher {
	return &httpRelayFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *httpRelayFetcher) Fetch(ctx context.Context, relayURL string) ([]RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: building request for %s: %w", relayURL, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetching %s: %w", relayURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: relay %s returned status %d", relayURL, resp.StatusCode)
	}

	var events []RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("discovery: decoding response from %s: %w", relayURL, err)
	}
	return events, nil
}
