// Package download runs the bounded-concurrency fetch-and-parse pipeline:
// streaming GET, storage accounting, speculative container parsing and
// thumbnail extraction, finalized into the shared playlist on success.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vidprefetch/cache/internal/mediaprobe"
	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
	"github.com/vidprefetch/cache/internal/storage"
)

// ErrFatalDownload names the fatal-download error kind (a non-2xx GET or an
// I/O failure). No path in this package returns or wraps it: such failures
// are logged and cleaned up in place by run and streamChunks' caller.
var ErrFatalDownload = errors.New("download: fatal error")

const chunkSize = 64 * 1024

// speedSampleInterval is the minimum elapsed time between speed
// recomputations, per spec.md's "at most once per second per item" rule.
const speedSampleInterval = time.Second

// Engine runs download tasks under a semaphore-bounded admission gate.
type Engine struct {
	state      *state.SharedState
	accountant *storage.Accountant
	tempDir    string
	client     *http.Client
	sem        *semaphore.Weighted
	extractor  mediaprobe.FrameExtractor

	mu      sync.Mutex
	stopped map[string]bool
}

// NewEngine builds a download Engine. maxParallel bounds concurrently
// running download goroutines.
func NewEngine(st *state.SharedState, tempDir string, maxParallel int, extractor mediaprobe.FrameExtractor) *Engine {
	return &Engine{
		state:      st,
		accountant: st.Accountant,
		tempDir:    tempDir,
		client:     &http.Client{},
		sem:        semaphore.NewWeighted(int64(maxParallel)),
		extractor:  extractor,
		stopped:    make(map[string]bool),
	}
}

// Start launches a download goroutine for each admitted item, returning
// immediately; each goroutine runs to completion or cancellation on its
// own. onDone is invoked with the item's id when the goroutine finishes,
// so the caller (the scheduler's queue) can remove it.
func (e *Engine) Start(ctx context.Context, items []*model.VideoDownload, onDone func(id string)) {
	for _, item := range items {
		item := item
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func() {
			defer e.sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					slog.Error("download: task panicked", "id", item.ID, "panic", r)
					if item.LocalPath != "" {
						e.cleanupFailed(item, item.LocalPath)
					} else {
						e.fail(item)
					}
				}
				if onDone != nil {
					onDone(item.ID)
				}
			}()
			e.run(ctx, item)
		}()
	}
}

// Stop marks id as cancelled; the running goroutine observes this on its
// next chunk boundary and aborts.
func (e *Engine) Stop(id string) {
	e.mu.Lock()
	e.stopped[id] = true
	e.mu.Unlock()
}

func (e *Engine) isStopped(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped[id]
}

func (e *Engine) clearStopped(id string) {
	e.mu.Lock()
	delete(e.stopped, id)
	e.mu.Unlock()
}

func (e *Engine) run(ctx context.Context, item *model.VideoDownload) {
	defer e.clearStopped(item.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		slog.Warn("download: building request failed", "id", item.ID, "error", err)
		e.fail(item)
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		slog.Warn("download: GET failed", "id", item.ID, "url", item.URL, "error", err)
		e.fail(item)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("download: non-2xx response", "id", item.ID, "status", resp.StatusCode)
		e.fail(item)
		return
	}

	if resp.ContentLength >= 0 {
		cl := resp.ContentLength
		e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) { v.ContentLength = &cl })
	}

	path := filepath.Join(e.tempDir, uuid.NewString()+".mp4")
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("download: creating output file failed", "id", item.ID, "error", err)
		e.fail(item)
		return
	}
	defer f.Close()

	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) { v.LocalPath = path })

	if err := e.streamChunks(ctx, item, resp.Body, f); err != nil {
		f.Close()
		e.cleanupFailed(item, path)
		return
	}

	e.finish(item)
}

// streamChunks reads the body in fixed-size chunks, reserving storage,
// writing, sampling speed, and attempting a speculative parse until one
// succeeds. Returns an error (after logging) if storage is exceeded, the
// item is stopped, or a read/write fails.
func (e *Engine) streamChunks(ctx context.Context, item *model.VideoDownload, body io.Reader, f *os.File) error {
	buf := make([]byte, chunkSize)
	var downloaded int64
	var mirror bytes.Buffer
	parsed := false

	for {
		if e.isStopped(item.ID) {
			return fmt.Errorf("download: %s stopped", item.ID)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if err := e.accountant.Reserve(int64(n)); err != nil {
				slog.Warn("download: storage exceeded", "id", item.ID, "error", err)
				return err
			}
			if _, err := f.Write(buf[:n]); err != nil {
				e.accountant.Release(int64(n))
				return fmt.Errorf("download: write failed for %s: %w", item.ID, err)
			}
			downloaded += int64(n)

			e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) {
				v.DownloadedBytes = downloaded
				e.sampleSpeed(v, downloaded)
			})

			if !parsed {
				mirror.Write(buf[:n])
				if e.tryParse(item, mirror.Bytes()) {
					parsed = true
					mirror.Reset()
				}
			}
		}

		if readErr == io.EOF {
			if !parsed {
				e.tryParse(item, mirror.Bytes())
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("download: read failed for %s: %w", item.ID, readErr)
		}
	}
}

// sampleSpeed recomputes download_speed_bps if at least a second has
// elapsed since the last sample, mutating v in place. Caller must already
// hold the table's per-item mutation context (via Table.Mutate).
func (e *Engine) sampleSpeed(v *model.VideoDownload, downloaded int64) {
	now := time.Now()
	if v.LastSpeedSampleTime.IsZero() {
		v.LastSpeedSampleTime = now
		v.LastSpeedSampleBytes = downloaded
		v.DownloadSpeedBps = 0
		return
	}
	dt := now.Sub(v.LastSpeedSampleTime)
	if dt < speedSampleInterval {
		return
	}
	delta := downloaded - v.LastSpeedSampleBytes
	v.DownloadSpeedBps = float64(delta) / dt.Seconds()
	v.LastSpeedSampleTime = now
	v.LastSpeedSampleBytes = downloaded
}

// tryParse runs mediaprobe.Probe against the growing mirror buffer and, on
// success, fills in the item's duration/format/dimensions and attempts a
// thumbnail extraction. Returns true once parsing has succeeded (callers
// should stop mirroring bytes after that).
func (e *Engine) tryParse(item *model.VideoDownload, buf []byte) bool {
	result := mediaprobe.Probe(buf)
	switch result.Status {
	case mediaprobe.NeedMore:
		return false
	case mediaprobe.Failed:
		slog.Warn("download: container parse failed", "id", item.ID, "error", result.Err)
		return false // non-fatal: retried on the next chunk; bytes remain servable regardless
	}

	m := result.Metadata
	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) {
		length := m.LengthSeconds
		v.LengthSeconds = &length
		v.Format = m.Format
		v.Width = m.Width
		v.Height = m.Height
	})

	if e.extractor != nil {
		go e.extractThumbnail(item, buf)
	}
	return true
}

func (e *Engine) extractThumbnail(item *model.VideoDownload, buf []byte) {
	tmp, err := os.CreateTemp(e.tempDir, "probe-*.mp4")
	if err != nil {
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(buf); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jpeg, err := e.extractor.ExtractFirstFrame(ctx, tmp.Name())
	if err != nil {
		slog.Debug("download: thumbnail extraction failed", "id", item.ID, "error", err)
		return
	}

	thumbPath := filepath.Join(e.tempDir, "thumb_"+uuid.NewString()+".jpg")
	if err := os.WriteFile(thumbPath, jpeg, 0o644); err != nil {
		slog.Debug("download: writing thumbnail failed", "id", item.ID, "error", err)
		return
	}
	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) { v.ThumbnailPath = thumbPath })
}

// finish marks a completed download no longer in-flight and appends it to
// the playlist, idempotent by id.
func (e *Engine) finish(item *model.VideoDownload) {
	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) { v.Downloading = false })
	e.state.Playlist.Append(item)
	slog.Info("download: complete", "id", item.ID, "bytes", item.DownloadedBytes)
}

func (e *Engine) fail(item *model.VideoDownload) {
	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) { v.Downloading = false })
}

// cleanupFailed deletes the partial file, refunds accounted bytes, and
// clears local_path, per the FatalDownload/StorageExceeded handling rule.
func (e *Engine) cleanupFailed(item *model.VideoDownload, path string) {
	var bytesOnDisk int64
	if info, err := os.Stat(path); err == nil {
		bytesOnDisk = info.Size()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("download: removing partial file failed", "id", item.ID, "path", path, "error", err)
	}
	if bytesOnDisk > 0 {
		e.accountant.Release(bytesOnDisk)
	}
	e.state.Table.Mutate(item.ID, func(v *model.VideoDownload) {
		v.Downloading = false
		v.LocalPath = ""
	})
}
