package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"batchenc/internal/fileutil"
	"batchenc/internal/logging"
	"batchenc/internal/report"
)

// resource is a side file copied next to the encoded output, typically an
// external subtitle track the encoder cannot mux itself.
type resource struct {
	src string
	dst string
}

// variant describes the fixed behavior of one strategy family. The command
// and copy hooks are bound at construction time; there is no dispatch after
// that.
type variant struct {
	name                string
	cropAutoArg         string
	subtitleAutoArg     string
	verboseArg          string
	redirectStderr      bool
	unsupportedOptions  []string
	completeOnConstruct bool
}

// Strategy is one variant bound to one job: command, path layout, process
// state, and timings. Constructed by Select, driven by the batch scheduler.
type Strategy struct {
	variant variant
	cfg     JobConfig
	scratch string
	logger  *slog.Logger

	dryRun     bool
	skipEncode bool
	debug      bool

	inputBase   string
	fqInput     string
	subtitleDir string
	outDir      string
	outFileBase string
	fqOutput    string
	fqTemp      string
	encoderLog  string
	outLog      string
	archiveDir  string
	jobJSONPath string

	command   []string
	resources []resource

	encodingComplete bool
	archiveComplete  bool

	cmd       *exec.Cmd
	stderrBuf *bytes.Buffer
	outLogFh  *os.File

	totalStart   time.Time
	totalStop    time.Time
	encodeStart  time.Time
	encodeStop   time.Time
	archiveStart time.Time
	archiveStop  time.Time

	report *report.Report
	now    func() time.Time
}

// newStrategy performs the layout computation and sanity checks common to
// every variant. The caller fills in the command afterward.
func newStrategy(v variant, opts Options, cfg JobConfig) (*Strategy, error) {
	if err := checkUnsupported(v, cfg); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Strategy{
		variant:    v,
		cfg:        cfg,
		scratch:    opts.ScratchDir,
		logger:     logging.WithComponent(logger, v.name),
		dryRun:     opts.DryRun,
		skipEncode: opts.SkipEncode,
		debug:      opts.Debug,
		report:     report.New(logger),
		now:        time.Now,
	}

	s.inputBase = filepath.Base(cfg.InputFile)
	s.fqInput = filepath.Join(cfg.WorkDir, s.inputBase)
	s.subtitleDir = filepath.Join(cfg.WorkDir, "subtitles")
	s.outLog = filepath.Join(cfg.WorkDir, s.inputBase+"-output.log")

	// Movies nest one level deeper under a title folder so multiple quality
	// variants of the same title can coexist.
	s.outDir = cfg.OutDir
	if cfg.Movie {
		s.outDir = filepath.Join(cfg.OutDir, cfg.OutputTitle)
	}

	s.outFileBase = outfileBasename(cfg.OutputTitle, cfg.Quality, cfg.Movie, cfg.MP4)
	s.fqOutput = filepath.Join(s.outDir, s.outFileBase)
	s.fqTemp = filepath.Join(opts.ScratchDir, s.outFileBase)
	s.encoderLog = filepath.Join(opts.ScratchDir, s.outFileBase+".log")

	if cfg.ArchiveRoot != "" && cfg.MediaRoot != "" {
		archiveDir, err := archiveDst(cfg.ArchiveRoot, cfg.MediaRoot, s.fqOutput)
		if err != nil {
			return nil, err
		}
		s.archiveDir = archiveDir
		s.jobJSONPath = filepath.Join(archiveDir, s.outFileBase+"-config.json")
	}

	if err := s.sanityCheck(); err != nil {
		return nil, err
	}
	if v.completeOnConstruct {
		s.encodingComplete = true
	}
	return s, nil
}

func checkUnsupported(v variant, cfg JobConfig) error {
	var bad []string
	for _, option := range v.unsupportedOptions {
		if cfg.optionSet(option) {
			bad = append(bad, "--"+option)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s rejects %s", ErrOptionNotSupported, v.name, strings.Join(bad, ", "))
	}
	return nil
}

func (s *Strategy) sanityCheck() error {
	if strings.TrimSpace(s.cfg.OutputTitle) == "" {
		return fmt.Errorf("%w: no output title for %s", ErrMalformedJob, s.fqInput)
	}
	if _, err := os.Stat(s.fqInput); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: input file not found: %s", ErrMalformedJob, s.fqInput)
		}
		return fmt.Errorf("stat input file: %w", err)
	}

	if info, err := os.Stat(s.outDir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path exists but is not a directory: %s", s.outDir)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("creating output path", logging.String("path", s.outDir))
		if err := os.MkdirAll(s.outDir, 0o755); err != nil {
			return fmt.Errorf("create output path: %w", err)
		}
	} else {
		return fmt.Errorf("stat output path: %w", err)
	}

	if info, err := os.Stat(s.scratch); err != nil || !info.IsDir() {
		return fmt.Errorf("scratch directory not found: %s", s.scratch)
	}
	return nil
}

// Name identifies the bound variant.
func (s *Strategy) Name() string {
	return s.variant.name
}

// InputFile returns the job's declared input file path.
func (s *Strategy) InputFile() string {
	return s.cfg.InputFile
}

// OutputPath returns the final destination of the encoded file.
func (s *Strategy) OutputPath() string {
	return s.fqOutput
}

// Command returns the external command argv, empty for passthrough.
func (s *Strategy) Command() []string {
	return append([]string(nil), s.command...)
}

// Report returns the strategy's private sub-report.
func (s *Strategy) Report() *report.Report {
	return s.report
}

// NeedsEncode reports whether an external process still has to run.
func (s *Strategy) NeedsEncode() bool {
	return !s.encodingComplete && !s.dryRun && !s.skipEncode
}

// needsCopy reports whether Wait should place the output file. Passthrough
// overrides this to always copy.
func (s *Strategy) needsCopy() bool {
	if s.variant.completeOnConstruct {
		return true
	}
	return s.NeedsEncode()
}

// NeedsArchive is true only when archiving is configured, encoding finished,
// and archiving has not already happened.
func (s *Strategy) NeedsArchive() bool {
	return s.archiveDir != "" && s.encodingComplete && !s.archiveComplete
}

// Run launches the external encoder without blocking. It is a no-op when no
// encode is needed.
func (s *Strategy) Run(ctx context.Context) error {
	s.totalStart = s.now()
	if s.variant.completeOnConstruct {
		return s.runPassthrough()
	}
	if !s.NeedsEncode() {
		return nil
	}

	s.logger.Info("running encoder", logging.String("command", strings.Join(s.command, " ")))
	fh, err := os.OpenFile(s.outLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output log: %w", err)
	}
	s.outLogFh = fh

	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Stdout = fh
	if s.variant.redirectStderr {
		cmd.Stderr = fh
	} else {
		s.stderrBuf = &bytes.Buffer{}
		cmd.Stderr = s.stderrBuf
	}
	if s.variant.name == variantHardware {
		cmd.Dir = s.scratch
	}

	s.encodeStart = s.totalStart
	if err := cmd.Start(); err != nil {
		fh.Close()
		s.outLogFh = nil
		return fmt.Errorf("start encoder: %w", err)
	}
	s.cmd = cmd
	return nil
}

// Wait blocks until the encoder exits, places the output on success, and
// records the job outcome. Returns the process exit status.
func (s *Strategy) Wait() (int, error) {
	status := s.waitProcess()

	if s.needsCopy() {
		errText := ""
		if status == 0 {
			if !s.dryRun {
				if err := s.copyToDest(); err != nil {
					return status, err
				}
			}
		} else if s.stderrBuf != nil {
			errText = s.stderrBuf.String()
		}
		s.totalStop = s.now()

		totalSec := elapsedSeconds(s.totalStart, s.totalStop)
		encodingSec := 0
		if !s.encodeStart.IsZero() && !s.encodeStop.IsZero() {
			encodingSec = elapsedSeconds(s.encodeStart, s.encodeStop)
		}
		encoded, err := report.NewEncoded(s.inputBase, s.fqOutput, status == 0, errText, totalSec, encodingSec)
		if err != nil {
			return status, err
		}
		s.report.Add(encoded)
	} else {
		s.totalStop = s.now()
	}

	if status == 0 {
		s.encodingComplete = true
	}
	s.logger.Info("job finished", logging.String("input", s.inputBase), logging.Int("status", status))
	return status, nil
}

func (s *Strategy) waitProcess() int {
	if s.cmd == nil {
		return 0
	}
	s.logger.Info("waiting for encode to complete", logging.String("input", s.inputBase))
	err := s.cmd.Wait()
	s.encodeStop = s.now()
	if s.outLogFh != nil {
		s.outLogFh.Close()
		s.outLogFh = nil
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	s.logger.Error("encoder wait failed", logging.Error(err))
	return -1
}

func (s *Strategy) copyToDest() error {
	if s.variant.completeOnConstruct {
		s.logger.Info("copying input file", logging.String("destination", s.fqOutput))
		if err := fileutil.CopyFile(s.fqInput, s.fqOutput); err != nil {
			return fmt.Errorf("passthrough copy: %w", err)
		}
	} else {
		s.logger.Info("moving encoded file", logging.String("destination", s.fqOutput))
		if err := fileutil.MoveFile(s.fqTemp, s.fqOutput); err != nil {
			return fmt.Errorf("place output: %w", err)
		}
	}
	for _, res := range s.resources {
		s.logger.Info("copying resource", logging.String("src", res.src), logging.String("dst", res.dst))
		if err := fileutil.CopyFile(res.src, res.dst); err != nil {
			return fmt.Errorf("copy resource: %w", err)
		}
	}
	return nil
}

// DoArchive copies the source, the encoder log, and any side resources into
// the archive directory, then writes a JSON snapshot of the resolved job
// configuration beside them. A no-op unless NeedsArchive.
func (s *Strategy) DoArchive() error {
	if !s.NeedsArchive() {
		return nil
	}
	s.archiveStart = s.now()
	s.logger.Info("archiving", logging.String("input", s.inputBase), logging.String("destination", s.archiveDir))

	if !s.dryRun {
		if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
			return fmt.Errorf("create archive directory: %w", err)
		}
		if err := fileutil.CopyIntoDir(s.fqInput, s.archiveDir); err != nil {
			return fmt.Errorf("archive source: %w", err)
		}
		if _, err := os.Stat(s.encoderLog); err == nil {
			if err := fileutil.CopyIntoDir(s.encoderLog, s.archiveDir); err != nil {
				return fmt.Errorf("archive log: %w", err)
			}
		}
		for _, res := range s.resources {
			if err := fileutil.CopyIntoDir(res.src, s.archiveDir); err != nil {
				return fmt.Errorf("archive resource: %w", err)
			}
		}
		if err := s.writeJobSnapshot(); err != nil {
			return err
		}
	}

	s.archiveStop = s.now()
	s.archiveComplete = true
	return nil
}

func (s *Strategy) writeJobSnapshot() error {
	snapshot := struct {
		JobConfig
		Command string `json:"command"`
	}{
		JobConfig: s.cfg,
		Command:   strings.Join(s.command, " "),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode job snapshot: %w", err)
	}
	if err := os.WriteFile(s.jobJSONPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write job snapshot: %w", err)
	}
	return nil
}

// ArchiveSeconds returns the archive phase duration, or 0 when no archive ran.
func (s *Strategy) ArchiveSeconds() int {
	if s.archiveStart.IsZero() || s.archiveStop.IsZero() {
		return 0
	}
	return elapsedSeconds(s.archiveStart, s.archiveStop)
}

func (s *Strategy) runPassthrough() error {
	lines := []string{
		"** Passthrough Encoder **",
		"Date: " + s.now().Format("2006-01-02 15:04:05 MST"),
		"Source: " + s.fqInput,
		"Destination: " + s.fqOutput,
		"",
	}
	content := strings.Join(lines, "\n")

	if s.dryRun {
		return nil
	}
	if err := os.WriteFile(s.encoderLog, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write passthrough log: %w", err)
	}
	// A work log beside the input makes it easy to see on the filesystem
	// which input files have been processed.
	workLog := filepath.Join(s.cfg.WorkDir, s.inputBase+".log")
	if err := os.WriteFile(workLog, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write passthrough work log: %w", err)
	}
	return nil
}

// outfileBasename builds "Title - Quality.mkv" style output names. The
// quality label is only appended for movies.
func outfileBasename(title, quality string, movie, mp4 bool) string {
	base := title
	if movie && quality != "" {
		base = fmt.Sprintf("%s - %s", base, quality)
	}
	ext := "mkv"
	if mp4 {
		ext = "m4v"
	}
	return base + "." + ext
}

// archiveDst mirrors the output file's subtree under the archive root with
// the extension stripped. The output path must live under the media root.
func archiveDst(archiveRoot, mediaRoot, outputFile string) (string, error) {
	rel, err := filepath.Rel(mediaRoot, outputFile)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path %s not under media root %s", outputFile, mediaRoot)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(archiveRoot, rel), nil
}

func elapsedSeconds(start, stop time.Time) int {
	seconds := int(stop.Sub(start).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}
