package encoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const variantHardware = "hardware"

var hardwareVariant = variant{
	name:               variantHardware,
	cropAutoArg:        "auto",
	subtitleAutoArg:    "auto",
	verboseArg:         "--debug",
	redirectStderr:     true,
	unsupportedOptions: []string{"decomb", "m4v", "chapters"},
}

// newHardware binds the other-transcode VideoToolbox variant to a job.
// Only available on darwin; elsewhere the platform rejection reads as an
// unsupported option so the selector can fall back to software.
func newHardware(ctx context.Context, opts Options, cfg JobConfig) (*Strategy, error) {
	if opts.platform() != "darwin" {
		return nil, fmt.Errorf("%w: hardware encoding requires darwin, running on %s", ErrOptionNotSupported, opts.platform())
	}

	s, err := newStrategy(hardwareVariant, opts, cfg)
	if err != nil {
		return nil, err
	}

	// The resolution gate decides whether the higher-efficiency codec pays
	// off, and guards the resize option: resizing a source that is already
	// below 4K would upscale noise.
	atLeast4K, err := opts.prober(cfg).AtLeast4K(ctx, s.fqInput)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", s.fqInput, err)
	}
	if cfg.Resize1080 && !atLeast4K {
		return nil, fmt.Errorf("%w: resize to 1080p requested but %s is below 4K", ErrIncompatibleInput, s.inputBase)
	}

	command := []string{cfg.HardwareBinary}
	command = append(command, "--crop", cropArg(cfg.Crop, hardwareVariant.cropAutoArg))

	if !cfg.DisableAutoBurn {
		// other-transcode has no disable switch; omitting --burn-subtitle
		// is the off position.
		if cfg.BurnSubtitleNum > 0 {
			command = append(command, "--burn-subtitle", strconv.Itoa(cfg.BurnSubtitleNum))
		} else {
			command = append(command, "--burn-subtitle", hardwareVariant.subtitleAutoArg)
		}
	}
	if cfg.AddSubtitle != "" {
		command = append(command, "--add-subtitle", cfg.AddSubtitle)
	}

	// other-transcode cannot mux external srt files, so they ride along as
	// side resources copied next to the output.
	for _, srt := range findSRTFiles(s.subtitleDir, s.inputBase) {
		s.resources = append(s.resources, resource{
			src: srt,
			dst: sideResourceDst(s.outDir, s.outFileBase, srtLang(srt)),
		})
	}

	if opts.Debug {
		command = append(command, hardwareVariant.verboseArg)
	}

	command = append(command, "--vt")
	if atLeast4K {
		command = append(command, "--hevc")
		if !cfg.NoTenBit {
			command = append(command, "--10-bit")
		}
		if cfg.Resize1080 {
			command = append(command, "--1080p")
		}
	}
	command = append(command, cfg.ExtraOptions...)

	// other-transcode writes into its working directory and names the output
	// after its input, so the input is staged as a symlink carrying the
	// desired output name.
	link, err := s.makeInputSymlink()
	if err != nil {
		return nil, err
	}
	command = append(command, link)

	s.command = command
	return s, nil
}

func (s *Strategy) makeInputSymlink() (string, error) {
	inputDir := filepath.Join(s.scratch, "input")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return "", fmt.Errorf("create symlink directory: %w", err)
	}
	link := filepath.Join(inputDir, s.outFileBase)
	if err := os.Symlink(s.fqInput, link); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("stage input symlink: %w", err)
	}
	return link, nil
}
