package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vidprefetch/cache/internal/httpapi"
	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

// Queue holds the current ranked download queue, guarded by its own mutex
// per the lock order accountant -> table -> queue -> playlist. It does not
// track how many downloads are active itself: in-flight items are excluded
// from the ranked candidates that feed Replace (they're already
// Downloading), so a queue-local counter would desync from the table the
// moment a download outlives one tick. The table is the source of truth
// for "how many are active right now" — see Ticker.tick.
type Queue struct {
	mu    sync.Mutex
	items []*model.VideoDownload
}

// NewQueue builds an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Replace swaps in a freshly ranked item list.
func (q *Queue) Replace(items []*model.VideoDownload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = items
}

// Snapshot returns a copy of the current queue order.
func (q *Queue) Snapshot() []*model.VideoDownload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.VideoDownload, len(q.items))
	copy(out, q.items)
	return out
}

// AdmitNext flips Downloading on up to budget head-of-queue items. budget
// is the caller-computed headroom (maxParallel minus the number of
// downloads already active per the table), not a value Queue tracks
// itself.
func (q *Queue) AdmitNext(budget int) []*model.VideoDownload {
	q.mu.Lock()
	defer q.mu.Unlock()

	var admitted []*model.VideoDownload
	for _, item := range q.items {
		if len(admitted) >= budget {
			break
		}
		if item.Downloading {
			continue
		}
		item.Downloading = true
		admitted = append(admitted, item)
	}
	return admitted
}

// Remove drops id from the queue, if present. Called when a download
// finishes or fails so a completed item doesn't linger in the stale order
// until the next tick rebuilds it.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Ticker drives periodic queue recomputation: on each tick it ranks every
// not-yet-downloaded candidate from the shared table and replaces the
// queue wholesale. Shaped directly on the teacher's playlist scheduler —
// run once immediately, then on every tick, until the context is
// cancelled.
type Ticker struct {
	state    *state.SharedState
	queue    *Queue
	targets  Targets
	interval time.Duration

	onTick func(admitted []*model.VideoDownload)
}

// NewTicker builds a scheduler Ticker.
func NewTicker(st *state.SharedState, q *Queue, targets Targets, interval time.Duration, onTick func([]*model.VideoDownload)) *Ticker {
	return &Ticker{state: st, queue: q, targets: targets, interval: interval, onTick: onTick}
}

// Run ranks and admits once immediately, then on every tick, until ctx is
// cancelled. Tick bodies never overlap: each runs to completion before the
// next ticker fire is handled.
func (t *Ticker) Run(ctx context.Context, maxParallel int) {
	t.tick(maxParallel)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(maxParallel)
		}
	}
}

func (t *Ticker) tick(maxParallel int) {
	start := time.Now()
	defer func() {
		httpapi.ObserveTick(time.Since(start).Seconds())
	}()

	var candidates []*model.VideoDownload
	active := 0
	var aggregateSpeed float64
	for _, v := range t.state.Table.Snapshot() {
		aggregateSpeed += v.DownloadSpeedBps
		if v.Downloading {
			active++
			continue
		}
		if v.LocalPath == "" {
			candidates = append(candidates, v)
		}
	}

	ranked := Rank(candidates, t.targets)
	t.queue.Replace(ranked)

	httpapi.SetGauges(active, t.state.Accountant.Used(), aggregateSpeed, len(ranked))

	budget := maxParallel - active
	if budget <= 0 {
		return
	}

	admitted := t.queue.AdmitNext(budget)
	if len(admitted) == 0 {
		return
	}

	// Mirror the admission flag onto the table's own records so both the
	// queue entry and its discovered-table twin agree, per spec.
	for _, item := range admitted {
		t.state.Table.Mutate(item.ID, func(v *model.VideoDownload) {
			v.Downloading = true
		})
	}

	slog.Info("scheduler: admitted downloads", "count", len(admitted), "active", active+len(admitted))
	httpapi.SetGauges(active+len(admitted), t.state.Accountant.Used(), aggregateSpeed, len(ranked))
	if t.onTick != nil {
		t.onTick(admitted)
	}
}
