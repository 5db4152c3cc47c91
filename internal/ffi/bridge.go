// Package ffi exposes the narrow foreign-boundary surface a host UI
// consumes: starting the engine once and draining newly discovered
// videos. Grounded on the original source's once-cell-guarded global
// (src/bridge.rs), realized here with sync.Once.
package ffi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

// NewVideo is one entry of list_new_videos()'s result: local_path is
// present only once the file is a complete, servable artifact.
type NewVideo struct {
	ID         string
	URL        string
	Title      string
	LocalPath  string
	Descriptor model.VideoDescriptor
}

// Bridge is the process-wide singleton the foreign boundary binds to.
// Like the original's OnceCell<Arc<AppState>>, Start is idempotent: the
// first call wins and every subsequent call returns the same bound
// address without restarting anything.
type Bridge struct {
	once        sync.Once
	boundAddr   string
	state       *state.SharedState
	startServer func(ctx context.Context, addr string) (string, error)
}

var (
	globalOnce   sync.Once
	globalBridge *Bridge
)

// Global returns the process-wide Bridge, constructing it on first call.
func Global() *Bridge {
	globalOnce.Do(func() {
		globalBridge = &Bridge{}
	})
	return globalBridge
}

// Bind associates this Bridge with the shared state and the function used
// to actually start listening, ahead of the first Start call. Must be
// called once during process wiring, before any Start call.
func (b *Bridge) Bind(st *state.SharedState, startServer func(ctx context.Context, addr string) (string, error)) {
	b.state = st
	b.startServer = startServer
}

// Start binds the engine's listener to an address and returns it.
// Idempotent: subsequent calls, from the same or a different host-UI
// caller, are no-ops that return the already-bound address.
func (b *Bridge) Start(ctx context.Context, requestedAddr string) (string, error) {
	var startErr error
	b.once.Do(func() {
		if b.startServer == nil {
			startErr = fmt.Errorf("ffi: bridge not bound")
			return
		}
		addr, err := b.startServer(ctx, requestedAddr)
		if err != nil {
			startErr = err
			return
		}
		b.boundAddr = addr
		slog.Info("ffi: engine started", "address", addr)
	})
	if startErr != nil {
		return "", startErr
	}
	return b.boundAddr, nil
}

// ListNewVideos returns only items appended to the playlist since the
// last call. local_path is included only when the file is complete.
func (b *Bridge) ListNewVideos() []NewVideo {
	if b.state == nil {
		return nil
	}
	items := b.state.Playlist.DrainNew()
	out := make([]NewVideo, 0, len(items))
	for _, v := range items {
		nv := NewVideo{
			ID:         v.ID,
			URL:        v.URL,
			Title:      v.Descriptor.Title,
			Descriptor: v.Descriptor,
		}
		if v.IsComplete() {
			nv.LocalPath = v.LocalPath
		}
		out = append(out, nv)
	}
	return out
}

// ResolveListenAddr turns a host:port request (possibly with a 0 port for
// "pick any free port") into the address actually bound, mirroring what a
// real net.Listener-backed HTTP start would report back across the
// foreign boundary.
func ResolveListenAddr(l net.Listener) string {
	return l.Addr().String()
}
