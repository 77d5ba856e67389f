package encoder

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"batchenc/internal/logging"
)

// Options carries batch-level knobs shared by every strategy construction.
type Options struct {
	ScratchDir string
	Logger     *slog.Logger
	Fallback   bool
	DryRun     bool
	SkipEncode bool
	Debug      bool

	// Prober overrides the ffprobe-backed resolution oracle in tests.
	Prober Prober
	// Platform overrides runtime.GOOS in tests.
	Platform string
}

func (o Options) platform() string {
	if o.Platform != "" {
		return o.Platform
	}
	return runtime.GOOS
}

func (o Options) prober(cfg JobConfig) Prober {
	if o.Prober != nil {
		return o.Prober
	}
	return FFprobeProber{Binary: cfg.FFprobeBinary}
}

// Select walks the candidate variants for a job in preference order and
// binds the first one that accepts the job's option set.
//
// A malformed job aborts immediately regardless of fallback: bad input is
// bad input no matter which variant looks at it. An unsupported option
// advances to the next candidate when fallback is enabled, and is fatal
// otherwise. Selection happens once per job, before any execution begins.
func Select(ctx context.Context, opts Options, cfg JobConfig) (*Strategy, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "selector")

	type candidate struct {
		name  string
		build func() (*Strategy, error)
	}

	var candidates []candidate
	if cfg.Passthrough {
		candidates = append(candidates, candidate{variantPassthrough, func() (*Strategy, error) {
			return newPassthrough(opts, cfg)
		}})
	}
	if !cfg.ForceSoftware {
		candidates = append(candidates, candidate{variantHardware, func() (*Strategy, error) {
			return newHardware(ctx, opts, cfg)
		}})
	}
	candidates = append(candidates, candidate{variantSoftware, func() (*Strategy, error) {
		return newSoftware(opts, cfg)
	}})

	var lastErr error
	for _, c := range candidates {
		strategy, err := c.build()
		if err == nil {
			logger.Debug("strategy selected",
				logging.String("input", cfg.InputFile),
				logging.String("strategy", c.name))
			return strategy, nil
		}
		if errors.Is(err, ErrMalformedJob) {
			return nil, err
		}
		if errors.Is(err, ErrOptionNotSupported) && opts.Fallback {
			logger.Info("strategy rejected job, falling back",
				logging.String("input", cfg.InputFile),
				logging.String("strategy", c.name),
				logging.Error(err))
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}
