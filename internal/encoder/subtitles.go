package encoder

import (
	"path/filepath"
	"strings"
)

// findSRTFiles locates external subtitle tracks for an input file, named
// like "subtitles/<input base>.<lang>.srt".
func findSRTFiles(subtitleDir, inputBase string) []string {
	stem := strings.TrimSuffix(inputBase, filepath.Ext(inputBase))
	matches, err := filepath.Glob(filepath.Join(subtitleDir, stem+".*.srt"))
	if err != nil {
		return nil
	}
	return matches
}

// sideResourceDst names a subtitle copy placed next to the encoded output,
// e.g. "Title - 1080p.eng.srt".
func sideResourceDst(outDir, outFileBase, lang string) string {
	stem := strings.TrimSuffix(outFileBase, filepath.Ext(outFileBase))
	return filepath.Join(outDir, stem+"."+lang+".srt")
}

// srtLang extracts the language token from a subtitle file name, e.g.
// "mymovie.eng.srt" yields "eng".
func srtLang(srtFile string) string {
	if !strings.HasSuffix(srtFile, ".srt") {
		return ""
	}
	base := filepath.Base(srtFile)
	base = strings.TrimSuffix(base, ".srt")
	lang := filepath.Ext(base)
	return strings.TrimPrefix(lang, ".")
}
