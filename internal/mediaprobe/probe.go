package mediaprobe

import (
	"bytes"
	"errors"

	"github.com/dhowden/tag"
)

// Probe attempts to extract container metadata from buf, the bytes of a
// download seen so far. It never blocks on I/O; callers loop it on each
// newly received chunk until it returns Parsed or the stream ends.
//
// Duration and dimensions come from a minimal internal ISO-BMFF box walk
// (see mp4box.go); format comes from dhowden/tag, the same metadata
// library this codebase already uses for audio tag reads, pointed here at
// whatever prefix of the video container has arrived so far.
func Probe(buf []byte) Result {
	meta, err := parseMP4Boxes(buf)
	if err == nil {
		if format := sniffFormat(buf); format != "" {
			meta.Format = format
		}
		return Result{Status: Parsed, Metadata: meta}
	}
	if errors.Is(err, errNeedMore) {
		return Result{Status: NeedMore}
	}
	return Result{Status: Failed, Err: err}
}

// sniffFormat asks dhowden/tag to identify the container from buf. It
// returns "" rather than an error on failure, since format is a nice-to-have
// refinement on top of the "mp4" default parseMP4Boxes already supplies.
func sniffFormat(buf []byte) string {
	m, err := tag.ReadFrom(bytes.NewReader(buf))
	if err != nil || m == nil {
		return ""
	}
	return string(m.FileType())
}
