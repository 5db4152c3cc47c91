package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidprefetch/cache/internal/model"
)

// itemStatus is the per-item progress snapshot included in /status.
type itemStatus struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Downloading       bool    `json:"downloading"`
	ContentLength     *int64  `json:"content_length,omitempty"`
	DownloadedBytes   int64   `json:"downloaded_bytes"`
	LengthSeconds     *float64 `json:"length_seconds,omitempty"`
	DownloadSpeedBps  float64 `json:"download_speed_bps"`
	HasThumbnail      bool    `json:"has_thumbnail"`
	HasLocalFile      bool    `json:"has_local_file"`
}

// statusResponse is the full JSON body /status returns.
type statusResponse struct {
	CurrentIndex            int          `json:"current_index"`
	Items                   []itemStatus `json:"items"`
	StorageUsedBytes        int64        `json:"storage_used_bytes"`
	StorageMaxBytes         int64        `json:"storage_max_bytes"`
	AggregateDownloadSpeed  float64      `json:"aggregate_download_speed_bps"`
	TotalDownloadedMinutes  float64      `json:"total_downloaded_minutes"`
}

// Status reports current index, per-item progress, storage usage,
// aggregate speed and total known duration, per spec.md §4.6. The
// total_downloaded_minutes field is supplemented from the original
// source's bridge status report.
func (s *Server) Status(c *gin.Context) {
	items := s.state.Playlist.Snapshot()

	resp := statusResponse{
		CurrentIndex:     s.state.Playlist.CurrentPosition(),
		Items:            make([]itemStatus, 0, len(items)),
		StorageUsedBytes: s.state.Accountant.Used(),
		StorageMaxBytes:  s.state.Accountant.Max(),
	}

	var totalMinutes float64
	for _, v := range items {
		resp.Items = append(resp.Items, toItemStatus(v))
		resp.AggregateDownloadSpeed += v.DownloadSpeedBps
		if v.LengthSeconds != nil {
			totalMinutes += *v.LengthSeconds / 60.0
		}
	}
	resp.TotalDownloadedMinutes = totalMinutes

	c.JSON(http.StatusOK, resp)
}

func toItemStatus(v *model.VideoDownload) itemStatus {
	return itemStatus{
		ID:               v.ID,
		Title:            v.Descriptor.Title,
		Downloading:      v.Downloading,
		ContentLength:    v.ContentLength,
		DownloadedBytes:  v.DownloadedBytes,
		LengthSeconds:    v.LengthSeconds,
		DownloadSpeedBps: v.DownloadSpeedBps,
		HasThumbnail:     v.ThumbnailPath != "",
		HasLocalFile:     v.LocalPath != "",
	}
}

// setIndexRequest is the body POST /set_index expects.
type setIndexRequest struct {
	Index int `json:"index"`
}

// SetIndex updates the playback cursor.
func (s *Server) SetIndex(c *gin.Context) {
	var req setIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.state.Playlist.SetCurrentPosition(req.Index)
	c.String(http.StatusOK, "OK")
}
