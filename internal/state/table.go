// Package state holds the process's shared in-memory records: the
// discovered-video table and the ordered playlist derived from it.
package state

import (
	"sync"

	"github.com/vidprefetch/cache/internal/model"
)

// DiscoveredTable is the single source of truth for every video the
// discovery pipeline has ever seen, keyed by descriptor id. A single mutex
// guards the whole map; callers needing a consistent view of several items
// must call Snapshot rather than taking the lock themselves.
type DiscoveredTable struct {
	mu    sync.Mutex
	items map[string]*model.VideoDownload
}

// NewDiscoveredTable builds an empty table.
func NewDiscoveredTable() *DiscoveredTable {
	return &DiscoveredTable{items: make(map[string]*model.VideoDownload)}
}

// Upsert inserts a freshly discovered descriptor if its id is new, or
// leaves the existing record untouched if it already exists. Ingestion
// never overwrites progress fields on a record the download engine may be
// actively mutating. Returns true if a new record was created.
func (t *DiscoveredTable) Upsert(d model.VideoDescriptor) (*model.VideoDownload, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.items[d.ID]; ok {
		return existing, false
	}
	v := model.NewVideoDownload(d)
	t.items[d.ID] = v
	return v, true
}

// Get returns the record for id, or nil if unknown.
func (t *DiscoveredTable) Get(id string) *model.VideoDownload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items[id]
}

// Mutate runs fn against the record for id while holding the table lock,
// so read-modify-write sequences (e.g. bumping DownloadedBytes) stay
// atomic. Returns false if id is unknown.
func (t *DiscoveredTable) Mutate(id string, fn func(*model.VideoDownload)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	if !ok {
		return false
	}
	fn(v)
	return true
}

// Delete removes id from the table, returning the removed record if any.
func (t *DiscoveredTable) Delete(id string) *model.VideoDownload {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	if !ok {
		return nil
	}
	delete(t.items, id)
	return v
}

// Snapshot returns the live records for every known id. Each item is
// mutated by at most one owning goroutine at a time (its download task, or
// the scheduler/eviction pass between downloads), so sharing the pointer
// rather than copying it lets progress fields (downloaded_bytes, speed,
// thumbnail_path) stay visible to every reader without a per-field lock.
// Callers needing an isolated point-in-time copy (e.g. before releasing
// the table lock ahead of disk I/O) should call Clone on the result.
func (t *DiscoveredTable) Snapshot() []*model.VideoDownload {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*model.VideoDownload, 0, len(t.items))
	for _, v := range t.items {
		out = append(out, v)
	}
	return out
}

// Len returns the number of known records.
func (t *DiscoveredTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
