package state

import "github.com/vidprefetch/cache/internal/storage"

// SharedState wires together the table, playlist and storage accountant
// that every component (discovery, scheduler, download engine, eviction,
// HTTP handlers) needs a handle to. Lock order across its fields follows
// accountant -> table -> queue -> playlist; no code path may acquire them
// in the reverse order.
type SharedState struct {
	Table      *DiscoveredTable
	Playlist   *Playlist
	Accountant *storage.Accountant
}

// NewSharedState builds a SharedState with a fresh table, playlist and an
// accountant ceilinged at maxStorageBytes.
func NewSharedState(maxStorageBytes int64) *SharedState {
	return &SharedState{
		Table:      NewDiscoveredTable(),
		Playlist:   NewPlaylist(),
		Accountant: storage.NewAccountant(maxStorageBytes),
	}
}
