package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

// headProbeConcurrency caps how many HEAD requests the ingestion loop runs
// concurrently while looking up the content length of freshly discovered
// URLs.
const headProbeConcurrency = 20

// Service polls configured relays on an interval, parses events into
// descriptors, upserts every parsed descriptor into the shared discovered
// table and playlist, and probes each new URL with HEAD to fill in its
// content length. Shaped on the teacher's
// ticker-driven scheduler: run once immediately, then on every tick,
// until the context is cancelled.
type Service struct {
	relays   []string
	fetcher  RelayFetcher
	authors  *AuthorCache
	state    *state.SharedState
	interval time.Duration
	probeSem *semaphore.Weighted
	client   *http.Client

	shutdownOnce sync.Once
}

// NewService builds a discovery Service.
func NewService(relays []string, fetcher RelayFetcher, authors *AuthorCache, st *state.SharedState, interval time.Duration) *Service {
	return &Service{
		relays:   relays,
		fetcher:  fetcher,
		authors:  authors,
		state:    st,
		interval: interval,
		probeSem: semaphore.NewWeighted(headProbeConcurrency),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Run polls every relay once, then every interval, until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.poll(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// Shutdown marks the service stopped. Safe to call more than once or
// concurrently with Run's own ctx.Done() path; only the first call acts.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() {
		slog.Info("discovery: shutting down")
	})
}

func (s *Service) poll(ctx context.Context) {
	for _, relay := range s.relays {
		events, err := s.fetcher.Fetch(ctx, relay)
		if err != nil {
			slog.Warn("discovery: relay fetch failed", "relay", relay, "error", err)
			continue
		}
		for _, ev := range events {
			s.ingestEvent(ctx, ev)
		}
	}
}

func (s *Service) ingestEvent(ctx context.Context, ev RawEvent) {
	for _, d := range ParseEventVariants(ev) {
		d := d
		s.enrichAuthor(ctx, &d)

		v, created := s.state.Table.Upsert(d)
		if !created {
			continue
		}
		s.state.Playlist.Append(v)
		slog.Info("discovery: new video discovered", "id", d.ID, "title", d.Title)

		// HEAD is best-effort enrichment, not a gate: a failed or non-2xx
		// probe just leaves content_length unknown, filled in later from
		// the GET response once the download starts.
		if length, ok := s.probeContentLength(ctx, d.URL); ok {
			s.state.Table.Mutate(v.ID, func(rec *model.VideoDownload) {
				rec.ContentLength = &length
			})
		}
	}
}

// probeContentLength runs a bounded-concurrency HEAD request against url
// and reports the advertised Content-Length. Any failure — acquiring the
// semaphore, building the request, the round trip itself, a non-2xx
// status, or a missing/unknown length — reports ok=false; the caller
// leaves content_length as None rather than dropping the item.
func (s *Service) probeContentLength(ctx context.Context, url string) (int64, bool) {
	if err := s.probeSem.Acquire(ctx, 1); err != nil {
		return 0, false
	}
	defer s.probeSem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Debug("discovery: HEAD probe failed, content_length left unknown", "url", url, "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("discovery: HEAD probe returned non-2xx, content_length left unknown", "url", url, "status", resp.StatusCode)
		return 0, false
	}
	if resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

func (s *Service) enrichAuthor(ctx context.Context, d *model.VideoDescriptor) {
	if d.Author.Npub == "" {
		return
	}
	meta, err := s.authors.Resolve(ctx, d.Author.Npub)
	if err != nil {
		slog.Debug("discovery: author lookup failed", "npub", d.Author.Npub, "error", err)
		return
	}
	d.Author.Name = meta.Name
	d.Author.PictureURL = meta.PictureURL
}
