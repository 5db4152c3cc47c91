// Package discovery polls configured relays for descriptor events, parses
// them into VideoDescriptors, and enriches them with author metadata.
package discovery

import (
	"net/url"
	"strings"

	"github.com/vidprefetch/cache/internal/model"
)

// RawEvent is the wire shape a relay's JSON feed is expected to carry: a
// pubkey identifying the author and a set of imeta-style variant tags, each
// describing one candidate video rendition.
type RawEvent struct {
	ID     string          `json:"id"`
	Pubkey string          `json:"pubkey"`
	Tags   [][]string      `json:"tags"`
	Score  float64         `json:"score,omitempty"`
}

// videoVariant is one parsed imeta tag: a candidate (hash, url) rendition
// plus whatever descriptive fields rode along with it.
type videoVariant struct {
	title  string
	url    string
	hash   string
}

// ParseVideoVariants extracts every imeta tag from ev.Tags. Each tag's
// fields (besides the leading "imeta" marker) are "key value..." strings;
// only the first occurrence of each key is kept, matching the original
// source's field-takes-first-value semantics.
func ParseVideoVariants(ev RawEvent) []videoVariant {
	var variants []videoVariant
	for _, tag := range ev.Tags {
		if len(tag) == 0 || tag[0] != "imeta" {
			continue
		}
		fields := make(map[string]string)
		for _, chunk := range tag[1:] {
			parts := strings.Fields(chunk)
			if len(parts) == 0 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(strings.Join(parts[1:], " "))
			if _, ok := fields[key]; !ok {
				fields[key] = value
			}
		}
		variants = append(variants, videoVariant{
			title: fields["title"],
			url:   fields["url"],
			hash:  fields["x"],
		})
	}
	return variants
}

// ParseEventVariants turns a raw event into zero or more VideoDescriptors,
// one per variant with a valid (hash, url) pair. Mirrors
// parse_event_as_video from the original discovery pipeline: title defaults
// to empty, song_name/comments/likes are opaque strings this transport
// doesn't carry and are left blank rather than fabricated.
func ParseEventVariants(ev RawEvent) []model.VideoDescriptor {
	var out []model.VideoDescriptor
	for _, v := range ParseVideoVariants(ev) {
		if v.hash == "" || v.url == "" || !IsValidHTTPURL(v.url) {
			continue
		}
		out = append(out, model.VideoDescriptor{
			ID:    v.hash,
			URL:   v.url,
			Title: v.title,
			Author: model.Author{
				Npub: ev.Pubkey,
			},
			Score: ev.Score,
		})
	}
	return out
}

// IsValidHTTPURL reports whether s parses as an absolute http(s) URL with a
// non-empty host.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
