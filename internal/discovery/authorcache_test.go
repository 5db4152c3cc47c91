package discovery

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	calls int
	fail  bool
	meta  AuthorMetadata
}

func (f *fakeFetcher) FetchAuthor(ctx context.Context, npub string) (AuthorMetadata, error) {
	f.calls++
	if f.fail {
		return AuthorMetadata{}, errors.New("boom")
	}
	return f.meta, nil
}

func TestAuthorCacheCachesSuccess(t *testing.T) {
	f := &fakeFetcher{meta: AuthorMetadata{Name: "Alice"}}
	c := NewAuthorCache(f)

	m1, err := c.Resolve(context.Background(), "npub1")
	if err != nil || m1.Name != "Alice" {
		t.Fatalf("unexpected result: %v, %v", m1, err)
	}
	m2, err := c.Resolve(context.Background(), "npub1")
	if err != nil || m2.Name != "Alice" {
		t.Fatalf("unexpected cached result: %v, %v", m2, err)
	}
	if f.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1 (second call should hit cache)", f.calls)
	}
}

func TestAuthorCacheDoesNotCacheFailures(t *testing.T) {
	f := &fakeFetcher{fail: true}
	c := NewAuthorCache(f)

	_, err := c.Resolve(context.Background(), "npub1")
	if err == nil {
		t.Fatalf("expected error from failing fetch")
	}
	_, err = c.Resolve(context.Background(), "npub1")
	if err == nil {
		t.Fatalf("expected error on retry")
	}
	if f.calls != 2 {
		t.Fatalf("fetcher called %d times, want 2 (failure must not be cached)", f.calls)
	}
}
