package encoder

const variantPassthrough = "passthrough"

var passthroughVariant = variant{
	name:                variantPassthrough,
	redirectStderr:      true,
	completeOnConstruct: true,
	unsupportedOptions: []string{
		"decomb",
		"m4v",
		"chapters",
		"disable-auto-burn",
		"add-subtitle",
		"crop",
		"resize-1080p",
		"force-software",
	},
}

// newPassthrough binds the copy-only variant to a job. No external process
// runs; the job is complete at construction and Wait performs a byte copy
// of the input into place.
func newPassthrough(opts Options, cfg JobConfig) (*Strategy, error) {
	s, err := newStrategy(passthroughVariant, opts, cfg)
	if err != nil {
		return nil, err
	}
	// Subtitle side files still travel with the output.
	for _, srt := range findSRTFiles(s.subtitleDir, s.inputBase) {
		s.resources = append(s.resources, resource{
			src: srt,
			dst: sideResourceDst(s.outDir, s.outFileBase, srtLang(srt)),
		})
	}
	return s, nil
}
