package encoder

import (
	"strconv"
)

const variantSoftware = "software"

var softwareVariant = variant{
	name:            variantSoftware,
	cropAutoArg:     "detect",
	subtitleAutoArg: "scan",
	verboseArg:      "--verbose",
	redirectStderr:  false,
}

// newSoftware binds the transcode-video variant to a job. Software encoding
// supports the full option set.
func newSoftware(opts Options, cfg JobConfig) (*Strategy, error) {
	s, err := newStrategy(softwareVariant, opts, cfg)
	if err != nil {
		return nil, err
	}

	command := []string{cfg.SoftwareBinary}
	command = append(command, "--crop", cropArg(cfg.Crop, softwareVariant.cropAutoArg))

	if cfg.DisableAutoBurn {
		command = append(command, "--disable-auto-burn")
	} else if cfg.BurnSubtitleNum > 0 {
		command = append(command, "--burn-subtitle", strconv.Itoa(cfg.BurnSubtitleNum))
	} else {
		command = append(command, "--burn-subtitle", softwareVariant.subtitleAutoArg)
	}
	if cfg.AddSubtitle != "" {
		command = append(command, "--add-subtitle", cfg.AddSubtitle)
	}
	// transcode-video can mux external srt tracks directly.
	for _, srt := range findSRTFiles(s.subtitleDir, s.inputBase) {
		command = append(command, "--add-srt", srt)
		command = append(command, "--bind-srt-language", srtLang(srt))
	}

	if cfg.Decomb {
		command = append(command, "-H", "comb-detect", "--filter", "decomb")
	}
	if cfg.MP4 {
		command = append(command, "--m4v")
	}
	if cfg.Chapters != "" {
		command = append(command, "--chapters", cfg.Chapters)
	}
	if opts.Debug {
		command = append(command, softwareVariant.verboseArg)
	}
	command = append(command, cfg.ExtraOptions...)
	command = append(command, s.fqInput, "--output", s.fqTemp)

	s.command = command
	return s, nil
}

func cropArg(cropParams, autoArg string) string {
	if cropParams != "" {
		return cropParams
	}
	return autoArg
}
