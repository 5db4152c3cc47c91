package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vidprefetch/cache/internal/model"
	"github.com/vidprefetch/cache/internal/state"
)

func newTestServer(t *testing.T, fileSize int) (*Server, *model.VideoDownload) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := state.NewSharedState(1 << 30)
	path := filepath.Join(t.TempDir(), "v.mp4")
	body := make([]byte, fileSize)
	for i := range body {
		body[i] = byte(i % 256)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	v, _ := st.Table.Upsert(model.VideoDescriptor{ID: "v0"})
	v.LocalPath = path
	st.Playlist.Append(v)

	return NewServer(st), v
}

func TestVideoMP4PartialContent(t *testing.T) {
	s, _ := newTestServer(t, 2048)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=0", nil)
	req.Header.Set("Range", "bytes=500-1499")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 500-1499/2048" {
		t.Fatalf("Content-Range = %q, want %q", got, "bytes 500-1499/2048")
	}
	if w.Body.Len() != 1000 {
		t.Fatalf("body length = %d, want 1000", w.Body.Len())
	}
}

func TestVideoMP4RangePastEnd(t *testing.T) {
	s, _ := newTestServer(t, 2048)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=0", nil)
	req.Header.Set("Range", "bytes=5000-6000")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", w.Code)
	}
}

func TestVideoMP4MalformedRange(t *testing.T) {
	s, _ := newTestServer(t, 2048)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=0", nil)
	req.Header.Set("Range", "items=0-10")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestVideoMP4NoRangeReturnsFullBody(t *testing.T) {
	s, _ := newTestServer(t, 2048)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=0", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 2048 {
		t.Fatalf("body length = %d, want 2048", w.Body.Len())
	}
}

func TestVideoMP4UnknownIndexReturns404(t *testing.T) {
	s, _ := newTestServer(t, 2048)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=99", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestVideoMP4NoLocalFileReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := state.NewSharedState(1 << 30)
	v, _ := st.Table.Upsert(model.VideoDescriptor{ID: "v0"})
	st.Playlist.Append(v) // local_path never set

	s := NewServer(st)
	req := httptest.NewRequest(http.MethodGet, "/video.mp4?index=0", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSetIndexUpdatesCursor(t *testing.T) {
	s, _ := newTestServer(t, 10)
	s.state.Playlist.Append(&model.VideoDownload{ID: "v1"})

	req := httptest.NewRequest(http.MethodPost, "/set_index", strings.NewReader(`{"index":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := s.state.Playlist.CurrentPosition(); got != 1 {
		t.Fatalf("CurrentPosition() = %d, want 1", got)
	}
}
