package httpapi

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedRange is returned for any Range header that isn't of the
// form "bytes=a-b" or "bytes=a-".
var ErrMalformedRange = errors.New("httpapi: malformed range header")

// byteRange is a parsed, still-unclamped request range.
type byteRange struct {
	start int64
	end   *int64 // nil means "to end of file"
}

// parseRange accepts "bytes=a-b" and "bytes=a-", rejecting any other form.
func parseRange(header string) (byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, ErrMalformedRange
	}
	spec := strings.TrimPrefix(header, prefix)
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return byteRange{}, ErrMalformedRange
	}

	start, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, ErrMalformedRange
	}

	if strings.TrimSpace(parts[1]) == "" {
		return byteRange{start: start}, nil
	}

	end, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || end < start {
		return byteRange{}, ErrMalformedRange
	}
	return byteRange{start: start, end: &end}, nil
}

// resolve clamps the range against the total file size. ok is false when
// start is at or beyond total, meaning the caller must reply 416.
func (r byteRange) resolve(total int64) (start, end int64, ok bool) {
	if r.start >= total {
		return 0, 0, false
	}
	end = total - 1
	if r.end != nil && *r.end < end {
		end = *r.end
	}
	return r.start, end, true
}
