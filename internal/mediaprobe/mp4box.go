package mediaprobe

import (
	"encoding/binary"
	"errors"
)

// errNeedMore signals the box walker ran off the end of the buffer before
// finding what it needed; the caller should retry once more bytes arrive.
var errNeedMore = errors.New("mediaprobe: need more bytes")

// parseMP4Boxes walks the top-level ISO-BMFF boxes in buf looking for
// moov/mvhd (timescale + duration) and moov/trak/tkhd (width + height).
// It is a deliberately minimal stand-in for the real container parser the
// spec scopes out as an external collaborator: just enough box-walking to
// answer "how long is this and how big is the frame", nothing more.
func parseMP4Boxes(buf []byte) (Metadata, error) {
	moov, err := findBox(buf, "moov")
	if err != nil {
		return Metadata{}, err
	}

	mvhd, err := findBox(moov, "mvhd")
	if err != nil {
		return Metadata{}, err
	}
	duration, err := parseMVHD(mvhd)
	if err != nil {
		return Metadata{}, err
	}

	var width, height int
	if trak, err := findBox(moov, "trak"); err == nil {
		if tkhd, err := findBox(trak, "tkhd"); err == nil {
			w, h, err := parseTKHD(tkhd)
			if err == nil {
				width, height = w, h
			}
		}
	}

	return Metadata{LengthSeconds: duration, Format: "mp4", Width: width, Height: height}, nil
}

// findBox scans buf's top level for a box with the given four-character
// type, returning its payload (the bytes after the 8-byte size+type
// header). A 64-bit "largesize" extended header is handled but not
// expected for the small boxes this parser cares about.
func findBox(buf []byte, boxType string) ([]byte, error) {
	for offset := 0; offset+8 <= len(buf); {
		size := binary.BigEndian.Uint32(buf[offset : offset+4])
		typ := string(buf[offset+4 : offset+8])

		headerLen := 8
		boxSize := uint64(size)
		if size == 1 {
			if offset+16 > len(buf) {
				return nil, errNeedMore
			}
			boxSize = binary.BigEndian.Uint64(buf[offset+8 : offset+16])
			headerLen = 16
		}
		if boxSize == 0 {
			// size==0 means "extends to end of file"; not resolvable from
			// a prefix, so treat as needing more data.
			return nil, errNeedMore
		}

		end := offset + int(boxSize)
		if end > len(buf) {
			return nil, errNeedMore
		}

		if typ == boxType {
			return buf[offset+headerLen : end], nil
		}
		offset = end
	}
	return nil, errNeedMore
}

// parseMVHD reads the duration out of an mvhd box payload (version 0 or 1)
// and returns it in seconds.
func parseMVHD(payload []byte) (float64, error) {
	if len(payload) < 1 {
		return 0, errNeedMore
	}
	version := payload[0]

	var timescaleOff, durationOff int
	var durationWidth int
	if version == 1 {
		timescaleOff = 1 + 3 + 8 + 8 // version+flags, creation, modification (64-bit each)
		durationOff = timescaleOff + 4
		durationWidth = 8
	} else {
		timescaleOff = 1 + 3 + 4 + 4 // version+flags, creation, modification (32-bit each)
		durationOff = timescaleOff + 4
		durationWidth = 4
	}

	if len(payload) < durationOff+durationWidth {
		return 0, errNeedMore
	}

	timescale := binary.BigEndian.Uint32(payload[timescaleOff : timescaleOff+4])
	if timescale == 0 {
		return 0, errors.New("mediaprobe: zero timescale in mvhd")
	}

	var duration uint64
	if durationWidth == 8 {
		duration = binary.BigEndian.Uint64(payload[durationOff : durationOff+8])
	} else {
		duration = uint64(binary.BigEndian.Uint32(payload[durationOff : durationOff+4]))
	}

	return float64(duration) / float64(timescale), nil
}

// parseTKHD reads width/height (16.16 fixed point, so divide by 65536) out
// of a tkhd box payload.
func parseTKHD(payload []byte) (width, height int, err error) {
	if len(payload) < 1 {
		return 0, 0, errNeedMore
	}
	version := payload[0]

	var base int
	if version == 1 {
		base = 1 + 3 + 8 + 8 + 4 + 4 + 8 // version+flags, creation, modification, trackID, reserved, duration
	} else {
		base = 1 + 3 + 4 + 4 + 4 + 4 + 4
	}
	// reserved(8) + layer(2) + alternate_group(2) + volume(2) + reserved(2) + matrix(36)
	widthOff := base + 8 + 2 + 2 + 2 + 2 + 36
	heightOff := widthOff + 4

	if len(payload) < heightOff+4 {
		return 0, 0, errNeedMore
	}

	w := binary.BigEndian.Uint32(payload[widthOff : widthOff+4])
	h := binary.BigEndian.Uint32(payload[heightOff : heightOff+4])
	return int(w >> 16), int(h >> 16), nil
}
