package jobstore

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one persisted job entry. The input file path is the record's
// identity and is stored as the ledger key, not inside the record itself.
// Pointer fields are per-job overrides of the batch-level encoding defaults;
// nil means "use the batch default".
type Record struct {
	InputFile   string `json:"-"`
	OutputTitle string `json:"output_title"`
	Complete    bool   `json:"complete"`

	OutDir          *string  `json:"outdir,omitempty"`
	Quality         *string  `json:"quality,omitempty"`
	Crop            *string  `json:"crop,omitempty"`
	Decomb          *bool    `json:"decomb,omitempty"`
	MP4             *bool    `json:"mp4,omitempty"`
	NoTenBit        *bool    `json:"no_ten_bit,omitempty"`
	Resize1080      *bool    `json:"resize_1080p,omitempty"`
	Movie           *bool    `json:"movie,omitempty"`
	DisableAutoBurn *bool    `json:"disable_auto_burn,omitempty"`
	BurnSubtitleNum *int     `json:"burn_subtitle_num,omitempty"`
	AddSubtitle     *string  `json:"add_subtitle,omitempty"`
	Chapters        *string  `json:"chapters,omitempty"`
	ExtraOptions    []string `json:"extra_options,omitempty"`
	Passthrough     *bool    `json:"passthrough,omitempty"`
	ForceSoftware   *bool    `json:"force_software,omitempty"`
}

// InferTitle derives a default output title from an input file path:
// basename with the extension stripped, title-cased.
func InferTitle(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return cases.Title(language.Und, cases.NoLower).String(base)
}
