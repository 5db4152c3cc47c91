package download

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

func buildBox(boxType string, payload []byte) []byte {
	box := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(box[0:4], uint32(8+len(payload)))
	copy(box[4:8], boxType)
	copy(box[8:], payload)
	return box
}

func smallMP4Body() []byte {
	mvhd := make([]byte, 1+3+4+4+4+4)
	binary.BigEndian.PutUint32(mvhd[12:16], 1000) // timescale
	binary.BigEndian.PutUint32(mvhd[16:20], 3000) // duration
	moov := buildBox("moov", buildBox("mvhd", mvhd))
	ftyp := buildBox("ftyp", []byte("isommp42"))
	return append(append([]byte{}, ftyp...), moov...)
}

func TestEngineDownloadCompletesAndAppendsToPlaylist(t *testing.T) {
	body := smallMP4Body()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	st := state.NewSharedState(1 << 20)
	d := model.VideoDescriptor{ID: "v1", URL: server.URL}
	v, _ := st.Table.Upsert(d)
	st.Playlist.Append(v) // no-op path check: engine.finish must still be idempotent

	eng := NewEngine(st, t.TempDir(), 2, nil)
	eng.run(context.Background(), v)

	if v.LocalPath == "" {
		t.Fatalf("expected local_path to be set")
	}
	if v.Downloading {
		t.Fatalf("expected downloading=false after completion")
	}
	if v.DownloadedBytes != int64(len(body)) {
		t.Fatalf("downloaded_bytes = %d, want %d", v.DownloadedBytes, len(body))
	}
	if v.LengthSeconds == nil || *v.LengthSeconds != 3.0 {
		t.Fatalf("expected parsed duration of 3.0s, got %v", v.LengthSeconds)
	}
	if got := st.Accountant.Used(); got != int64(len(body)) {
		t.Fatalf("accountant used = %d, want %d", got, len(body))
	}
	if _, err := os.Stat(v.LocalPath); err != nil {
		t.Fatalf("expected file to exist on disk: %v", err)
	}
}

func TestEngineAbortsOnStorageExceeded(t *testing.T) {
	body := make([]byte, 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	st := state.NewSharedState(1000) // ceiling smaller than body
	d := model.VideoDescriptor{ID: "v2", URL: server.URL}
	v, _ := st.Table.Upsert(d)

	eng := NewEngine(st, t.TempDir(), 2, nil)
	eng.run(context.Background(), v)

	if v.Downloading {
		t.Fatalf("expected downloading=false after storage-exceeded abort")
	}
	if v.LocalPath != "" {
		t.Fatalf("expected local_path cleared after abort, got %q", v.LocalPath)
	}
	if got := st.Accountant.Used(); got != 0 {
		t.Fatalf("accountant used = %d, want 0 after refund", got)
	}
}
