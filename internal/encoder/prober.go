package encoder

import (
	"context"

	"batchenc/internal/media/ffprobe"
)

// Prober answers resolution questions about an input file. The production
// implementation shells out to ffprobe; tests inject a canned one.
type Prober interface {
	AtLeast4K(ctx context.Context, path string) (bool, error)
}

// FFprobeProber inspects files with the configured ffprobe binary.
type FFprobeProber struct {
	Binary string
}

func (p FFprobeProber) AtLeast4K(ctx context.Context, path string) (bool, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return false, err
	}
	if _, err := result.PrimaryVideoStream(); err != nil {
		return false, err
	}
	return result.AtLeast4K(), nil
}
