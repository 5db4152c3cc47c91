// Package mediaprobe extracts container metadata and a preview frame from
// a video file while it is still being downloaded. Both operations stand
// in for the real parser and encoder, which spec treats as external black
// boxes this service merely calls into.
package mediaprobe

// Status is the tagged outcome of a speculative parse attempt: either more
// bytes are needed, parsing succeeded, or it failed outright.
type Status int

const (
	// NeedMore means the prefix seen so far isn't enough to decide.
	NeedMore Status = iota
	// Parsed means metadata was extracted successfully.
	Parsed
	// Failed means the prefix will never parse (corrupt or unsupported).
	Failed
)

// Metadata is what a successful parse fills in.
type Metadata struct {
	LengthSeconds float64
	Format        string
	Width         int
	Height        int
}

// Result is the tri-state return of a speculative parse attempt.
type Result struct {
	Status   Status
	Metadata Metadata
	Err      error
}
