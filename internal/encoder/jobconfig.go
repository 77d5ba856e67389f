package encoder

// JobConfig is the fully resolved configuration for one run of one job:
// batch-level defaults already overridden by any per-job fields. Immutable
// once built; consumed by exactly one strategy instance.
type JobConfig struct {
	InputFile   string `json:"input_file"`
	OutputTitle string `json:"output_title"`

	WorkDir     string `json:"workdir"`
	OutDir      string `json:"outdir"`
	MediaRoot   string `json:"media_root,omitempty"`
	ArchiveRoot string `json:"archive_root,omitempty"`

	Quality         string   `json:"quality,omitempty"`
	Crop            string   `json:"crop_params,omitempty"`
	Decomb          bool     `json:"decomb"`
	MP4             bool     `json:"m4v"`
	NoTenBit        bool     `json:"no_ten_bit"`
	Resize1080      bool     `json:"resize_1080p"`
	Movie           bool     `json:"movie"`
	DisableAutoBurn bool     `json:"disable_auto_burn"`
	BurnSubtitleNum int      `json:"burn_subtitle_num,omitempty"`
	AddSubtitle     string   `json:"add_subtitle,omitempty"`
	Chapters        string   `json:"chapters,omitempty"`
	ExtraOptions    []string `json:"extra_options,omitempty"`
	Passthrough     bool     `json:"passthrough"`
	ForceSoftware   bool     `json:"force_software"`

	SoftwareBinary string `json:"-"`
	HardwareBinary string `json:"-"`
	FFprobeBinary  string `json:"-"`
}

// optionSet reports whether the named option is active on this job. The
// names line up with the per-variant unsupported-option lists.
func (j JobConfig) optionSet(name string) bool {
	switch name {
	case "decomb":
		return j.Decomb
	case "m4v":
		return j.MP4
	case "chapters":
		return j.Chapters != ""
	case "disable-auto-burn":
		return j.DisableAutoBurn
	case "add-subtitle":
		return j.AddSubtitle != ""
	case "crop":
		return j.Crop != ""
	case "resize-1080p":
		return j.Resize1080
	case "force-software":
		return j.ForceSoftware
	}
	return false
}
