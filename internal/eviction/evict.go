// Package eviction implements the behind-limit pass: reclaiming disk space
// for items the playback cursor has already passed and moved well beyond.
package eviction

import (
	"log/slog"
	"os"

	"github.com/vidprefetch/cache/internal/httpapi"
	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

// Pass runs one behind-limit eviction sweep. An item is evicted only when
// it is strictly behind the playback cursor AND the cumulative duration of
// everything between its position and the cursor exceeds
// maxBehindSeconds. This is the corrected predicate from spec.md §9 — not
// the literal "any item whose own length exceeds the threshold, anywhere"
// reading, which would wrongly evict upcoming long videos.
//
// File deletions happen outside the table mutex: snapshots are taken
// first, the lock is released, files are deleted, and the lock is
// reacquired only to clear local_path and update the accountant.
func Pass(st *state.SharedState, maxBehindSeconds float64) {
	cursor := st.Playlist.CurrentPosition()
	behind := st.Playlist.ItemsBehind(cursor)

	type candidate struct {
		item *model.VideoDownload
		path string
		size int64
	}

	var toEvict []candidate

	var cumulative float64
	for i := len(behind) - 1; i >= 0; i-- {
		entry := behind[i]
		item := entry.Item
		if item.LengthSeconds != nil {
			cumulative += *item.LengthSeconds
		}
		if cumulative > maxBehindSeconds && item.LocalPath != "" {
			toEvict = append(toEvict, candidate{item: item, path: item.LocalPath, size: item.DownloadedBytes})
		}
	}

	for _, c := range toEvict {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			slog.Warn("eviction: failed to remove file", "id", c.item.ID, "path", c.path, "error", err)
		}

		st.Table.Mutate(c.item.ID, func(v *model.VideoDownload) {
			v.LocalPath = ""
		})
		st.Accountant.Release(c.size)
		slog.Info("eviction: reclaimed item", "id", c.item.ID, "bytes", c.size)
	}

	if len(toEvict) > 0 {
		httpapi.RecordEviction(len(toEvict))
	}
}
