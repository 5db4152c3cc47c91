package discovery

import (
	"context"
	"sync"
	"time"
)

// AuthorMetadata is what a successful author lookup resolves to.
type AuthorMetadata struct {
	Name       string
	PictureURL string
}

// AuthorFetcher resolves a single author's display metadata. The real
// lookup is a relay round trip (Kind::Metadata events in the original
// source); here it is a seam so tests can substitute a fake.
type AuthorFetcher interface {
	FetchAuthor(ctx context.Context, npub string) (AuthorMetadata, error)
}

// lookupDeadline bounds a single author lookup, matching the original
// source's bounded metadata-fetch behaviour.
const lookupDeadline = 10 * time.Second

// AuthorCache is a read-through cache over AuthorFetcher, keyed by npub.
// Failed lookups are deliberately NOT cached: spec.md §9 calls out that a
// transient relay failure shouldn't permanently blank out an author's
// name/picture, so the next descriptor for the same author retries the
// fetch instead of reusing a cached miss.
type AuthorCache struct {
	mu      sync.Mutex
	entries map[string]AuthorMetadata
	fetcher AuthorFetcher
}

// NewAuthorCache builds an AuthorCache backed by fetcher.
func NewAuthorCache(fetcher AuthorFetcher) *AuthorCache {
	return &AuthorCache{
		entries: make(map[string]AuthorMetadata),
		fetcher: fetcher,
	}
}

// Resolve returns cached metadata for npub if present, otherwise performs a
// bounded lookup and caches it on success. On failure it returns the zero
// value and the error, without poisoning the cache for future callers.
func (c *AuthorCache) Resolve(ctx context.Context, npub string) (AuthorMetadata, error) {
	c.mu.Lock()
	if m, ok := c.entries[npub]; ok {
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	lookupCtx, cancel := context.WithTimeout(ctx, lookupDeadline)
	defer cancel()

	m, err := c.fetcher.FetchAuthor(lookupCtx, npub)
	if err != nil {
		return AuthorMetadata{}, err
	}

	c.mu.Lock()
	c.entries[npub] = m
	c.mu.Unlock()
	return m, nil
}
