package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// httpAuthorFetcher resolves author metadata with one GET per lookup
// against a configured metadata endpoint, expecting a JSON object with
// "name" and "picture" fields — the same minimal-transport philosophy as
// httpRelayFetcher, since the real relay protocol is out of scope.
type httpAuthorFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAuthorFetcher builds an AuthorFetcher that queries baseURL+"/"+npub
// for metadata.
func NewHTTPAuthorFetcher(baseURL string, client *http.Client) AuthorFetcher {
	return &httpAuthorFetcher{baseURL: baseURL, client: client}
}

func (f *httpAuthorFetcher) FetchAuthor(ctx context.Context, npub string) (AuthorMetadata, error) {
	url := fmt.Sprintf("%s/%s", f.baseURL, npub)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return AuthorMetadata{}, fmt.Errorf("discovery: building author request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return AuthorMetadata{}, fmt.Errorf("discovery: fetching author %s: %w", npub, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AuthorMetadata{}, fmt.Errorf("discovery: author lookup for %s returned status %d", npub, resp.StatusCode)
	}

	var body struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AuthorMetadata{}, fmt.Errorf("discovery: decoding author metadata for %s: %w", npub, err)
	}
	return AuthorMetadata{Name: body.Name, PictureURL: body.Picture}, nil
}
