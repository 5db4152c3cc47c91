package mediaprobe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// FrameExtractor pulls a single decoded frame out of a (possibly partial)
// video file and returns it re-encoded as JPEG bytes. The real decoder and
// JPEG encoder are external collaborators per spec; this interface is the
// seam, with a default implementation that shells out to ffmpeg.
type FrameExtractor interface {
	ExtractFirstFrame(ctx context.Context, inputFile string) ([]byte, error)
}

// ffmpegFrameExtractor shells out to ffmpeg, grounded directly on the
// teacher's Encoder.Stream: exec.CommandContext with a drained stderr pipe
// and stdout captured for the caller.
type ffmpegFrameExtractor struct{}

// NewFFmpegFrameExtractor builds the default, ffmpeg-backed FrameExtractor.
func NewFFmpegFrameExtractor() FrameExtractor {
	return &ffmpegFrameExtractor{}
}

func (e *ffmpegFrameExtractor) ExtractFirstFrame(ctx context.Context, inputFile string) ([]byte, error) {
	args := []string{
		"-y",
		"-i", inputFile,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Debug("mediaprobe: ffmpeg frame extraction failed", "input", inputFile, "stderr", stderr.String(), "error", err)
		return nil, fmt.Errorf("mediaprobe: extracting frame from %s: %w", inputFile, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("mediaprobe: ffmpeg produced no frame for %s", inputFile)
	}
	return stdout.Bytes(), nil
}
