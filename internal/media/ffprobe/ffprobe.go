package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Resolution thresholds for the 4K decision. A source counts as 4K-equivalent
// when either axis reaches the UHD frame: theatrical ratios crop the height,
// 4:3 sources narrow the width, but not both at once.
const (
	Width4K  = 3840
	Height4K = 2160
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response. A non-zero exit is returned as an error with the tool output.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-print_format", "json", "-show_format", "-show_streams", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// PrimaryVideoStream returns the first video stream in the container.
func (r Result) PrimaryVideoStream() (Stream, error) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, nil
		}
	}
	return Stream{}, errors.New("ffprobe: no video stream found")
}

// VideoWidth returns the pixel width of the primary video stream, or 0 when
// no video stream exists.
func (r Result) VideoWidth() int {
	stream, err := r.PrimaryVideoStream()
	if err != nil {
		return 0
	}
	return stream.Width
}

// VideoHeight returns the pixel height of the primary video stream, or 0 when
// no video stream exists.
func (r Result) VideoHeight() int {
	stream, err := r.PrimaryVideoStream()
	if err != nil {
		return 0
	}
	return stream.Height
}

// AtLeast4K reports whether the primary video stream is 4K-equivalent.
func (r Result) AtLeast4K() bool {
	return r.VideoHeight() >= Height4K || r.VideoWidth() >= Width4K
}
