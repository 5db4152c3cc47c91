package ffi

import (
	"context"
	"testing"

	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

func TestStartIsIdempotent(t *testing.T) {
	st := state.NewSharedState(1024)
	b := &Bridge{}
	calls := 0
	b.Bind(st, func(ctx context.Context, addr string) (string, error) {
		calls++
		return "127.0.0.1:9999", nil
	})

	addr1, err := b.Start(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr2, err := b.Start(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if addr1 != addr2 {
		t.Fatalf("addr1=%q addr2=%q, want idempotent same address", addr1, addr2)
	}
	if calls != 1 {
		t.Fatalf("startServer called %d times, want 1", calls)
	}
}

func TestListNewVideosOnlyCompleteHaveLocalPath(t *testing.T) {
	st := state.NewSharedState(1024)
	b := &Bridge{}
	b.Bind(st, func(ctx context.Context, addr string) (string, error) { return addr, nil })

	complete := &model.VideoDownload{ID: "a", LocalPath: "/tmp/a.mp4"}
	cl := int64(100)
	complete.ContentLength = &cl
	complete.DownloadedBytes = 100

	incomplete := &model.VideoDownload{ID: "b", LocalPath: "/tmp/b.mp4"}
	cl2 := int64(500)
	incomplete.ContentLength = &cl2
	incomplete.DownloadedBytes = 10

	st.Playlist.Append(complete)
	st.Playlist.Append(incomplete)

	videos := b.ListNewVideos()
	if len(videos) != 2 {
		t.Fatalf("len(videos) = %d, want 2", len(videos))
	}
	if videos[0].LocalPath != "/tmp/a.mp4" {
		t.Fatalf("expected complete item to carry local_path, got %q", videos[0].LocalPath)
	}
	if videos[1].LocalPath != "" {
		t.Fatalf("expected incomplete item's local_path to be absent, got %q", videos[1].LocalPath)
	}
}

func TestListNewVideosOnlyReturnsUnseen(t *testing.T) {
	st := state.NewSharedState(1024)
	b := &Bridge{}
	b.Bind(st, nil)

	st.Playlist.Append(&model.VideoDownload{ID: "a"})
	first := b.ListNewVideos()
	if len(first) != 1 {
		t.Fatalf("first drain len = %d, want 1", len(first))
	}

	if second := b.ListNewVideos(); len(second) != 0 {
		t.Fatalf("second drain len = %d, want 0", len(second))
	}
}
