package state

import (
	"sync"

	"github.com/vidprefetch/cache/internal/model"
)

// Playlist is the ordered view of discovered videos the player walks
// through: a slice for position-based access plus an id index, kept in
// lockstep under one mutex so the two never disagree about membership.
type Playlist struct {
	mu               sync.Mutex
	items            []*model.VideoDownload
	itemsByID        map[string]int
	currentPosition  int
	lastSentPosition int
}

// NewPlaylist builds an empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{itemsByID: make(map[string]int)}
}

// Append adds v to the end of the playlist if its id isn't already present.
// Returns false if v.ID was already in the playlist (append is idempotent).
func (p *Playlist) Append(v *model.VideoDownload) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.itemsByID[v.ID]; ok {
		return false
	}
	p.itemsByID[v.ID] = len(p.items)
	p.items = append(p.items, v)
	return true
}

// Len returns the number of items in the playlist.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// CurrentPosition returns the current playback cursor.
func (p *Playlist) CurrentPosition() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentPosition
}

// SetCurrentPosition moves the playback cursor, clamped to [0, len-1] (or 0
// for an empty playlist). This backs the /set_index operation.
func (p *Playlist) SetCurrentPosition(pos int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		p.currentPosition = 0
		return 0
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(p.items) {
		pos = len(p.items) - 1
	}
	p.currentPosition = pos
	return pos
}

// PositionOf returns the index of id and whether it was found.
func (p *Playlist) PositionOf(id string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.itemsByID[id]
	return pos, ok
}

// ItemAt returns the item at pos, or nil if out of range.
func (p *Playlist) ItemAt(pos int) *model.VideoDownload {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos < 0 || pos >= len(p.items) {
		return nil
	}
	return p.items[pos]
}

// Snapshot returns a copy of the full ordered item slice.
func (p *Playlist) Snapshot() []*model.VideoDownload {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*model.VideoDownload, len(p.items))
	copy(out, p.items)
	return out
}

// DrainNew returns every item appended since the last call to DrainNew (the
// foreign-boundary list_new_videos high-water mark) and advances the mark.
// Non-blocking: an empty result means nothing new, not an error.
func (p *Playlist) DrainNew() []*model.VideoDownload {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastSentPosition >= len(p.items) {
		return nil
	}
	out := make([]*model.VideoDownload, len(p.items)-p.lastSentPosition)
	copy(out, p.items[p.lastSentPosition:])
	p.lastSentPosition = len(p.items)
	return out
}

// ItemsBehind returns, for items strictly before cursor, their index and
// record, oldest first. Used by the eviction pass.
func (p *Playlist) ItemsBehind(cursor int) []struct {
	Pos  int
	Item *model.VideoDownload
} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []struct {
		Pos  int
		Item *model.VideoDownload
	}
	for i := 0; i < cursor && i < len(p.items); i++ {
		out = append(out, struct {
			Pos  int
			Item *model.VideoDownload
		}{Pos: i, Item: p.items[i]})
	}
	return out
}
