package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
)

// VideoMP4 streams the file at playlist position ?index=n, honoring an
// optional Range header. Matches spec.md §4.6/§6 exactly: 200 full body
// with no range, 206 partial content with a valid range, 404 for an
// unknown index or a not-yet-downloaded item, 400 for a malformed range,
// 416 for a range starting at or past the end of the file.
func (s *Server) VideoMP4(c *gin.Context) {
	item, ok := s.itemAtQueryIndex(c)
	if !ok {
		return
	}
	if item.LocalPath == "" {
		c.Status(http.StatusNotFound)
		return
	}

	f, err := os.Open(item.LocalPath)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	total := info.Size()

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", "video/mp4")

	rangeHeader := c.GetHeader("Range")
	if rangeHeader == "" {
		c.Status(http.StatusOK)
		c.Header("Content-Length", strconv.FormatInt(total, 10))
		_, _ = io.CopyN(c.Writer, f, total)
		return
	}

	rng, err := parseRange(rangeHeader)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	start, end, ok := rng.resolve(total)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", total))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	length := end - start + 1
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	c.Status(http.StatusPartialContent)

	if _, err := f.Seek(start, 0); err != nil {
		return
	}
	_, _ = io.CopyN(c.Writer, f, length)
}

// Thumbnail returns the JPEG bytes for the item at ?index=n, or 404 if no
// thumbnail has been extracted yet.
func (s *Server) Thumbnail(c *gin.Context) {
	item, ok := s.itemAtQueryIndex(c)
	if !ok {
		return
	}
	if item.ThumbnailPath == "" {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Content-Type", "image/jpeg")
	c.File(item.ThumbnailPath)
}

func (s *Server) itemAtQueryIndex(c *gin.Context) (item *itemHandle, ok bool) {
	idxStr := c.Query("index")
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		c.Status(http.StatusNotFound)
		return nil, false
	}
	v := s.state.Playlist.ItemAt(idx)
	if v == nil {
		c.Status(http.StatusNotFound)
		return nil, false
	}
	return &itemHandle{LocalPath: v.LocalPath, ThumbnailPath: v.ThumbnailPath}, true
}

// itemHandle is a narrow read view of a playlist item's servable fields,
// avoiding a direct dependency on model internals inside this handler.
type itemHandle struct {
	LocalPath     string
	ThumbnailPath string
}
