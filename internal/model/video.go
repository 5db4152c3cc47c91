// Package model holds the data types shared by every component of the
// prefetch cache: the immutable descriptor discovered from the relay feed,
// and the mutable download record derived from it.
package model

import "time"

// Author is the enriched author metadata attached to a descriptor. Name and
// PictureURL are filled in from the author cache and are absent when the
// lookup failed or hasn't completed yet.
type Author struct {
	Npub       string `json:"npub"`
	Name       string `json:"name,omitempty"`
	PictureURL string `json:"picture_url,omitempty"`
}

// VideoDescriptor is an immutable record identifying one video, as received
// from the discovery pipeline. Once discovered, none of these fields change.
type VideoDescriptor struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	SongName string `json:"song_name"`
	Likes    string `json:"likes"`
	Comments string `json:"comments"`
	Author   Author `json:"author"`
	// Score is an opaque, non-negative ranking input supplied by whatever
	// upstream ranker tagged the event. Defaults to 0 when absent.
	Score float64 `json:"score"`
}

// VideoDownload is the lifecycle record for one descriptor: immutable
// descriptor fields plus everything the download engine, scheduler and
// eviction pass mutate over time.
type VideoDownload struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Descriptor VideoDescriptor `json:"descriptor"`

	LocalPath   string `json:"local_path,omitempty"`
	Downloading bool   `json:"downloading"`

	ContentLength   *int64 `json:"content_length,omitempty"`
	DownloadedBytes int64  `json:"downloaded_bytes"`

	LengthSeconds *float64 `json:"length_seconds,omitempty"`
	Format        string   `json:"format,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`

	DownloadSpeedBps    float64   `json:"download_speed_bps"`
	LastSpeedSampleTime time.Time `json:"-"`
	LastSpeedSampleBytes int64    `json:"-"`

	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	Score float64 `json:"score"`
}

// NewVideoDownload converts a freshly discovered descriptor into a download
// record with default progress fields. Score defaults to 0 when the
// descriptor didn't carry one, per spec.md §9's open-question decision.
func NewVideoDownload(d VideoDescriptor) *VideoDownload {
	return &VideoDownload{
		ID:         d.ID,
		URL:        d.URL,
		Descriptor: d,
		Score:      d.Score,
	}
}

// IsComplete reports whether the file on disk is a fully-downloaded,
// servable artifact: content length known and met or exceeded by what's
// been written. Mirrors invariant 4 in spec.md §3.
func (v *VideoDownload) IsComplete() bool {
	return v.ContentLength != nil && v.DownloadedBytes >= *v.ContentLength
}

// Clone returns a shallow copy safe to hand to a caller outside the table's
// mutex, matching the teacher's to_vec()-then-release pattern.
func (v *VideoDownload) Clone() *VideoDownload {
	cp := *v
	return &cp
}
