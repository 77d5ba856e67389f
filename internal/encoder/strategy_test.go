package encoder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeProber struct {
	fourK bool
	err   error
}

func (p fakeProber) AtLeast4K(ctx context.Context, path string) (bool, error) {
	return p.fourK, p.err
}

type testEnv struct {
	workDir    string
	outDir     string
	scratchDir string
	mediaRoot  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	env := testEnv{
		workDir:    filepath.Join(root, "work"),
		mediaRoot:  filepath.Join(root, "media"),
		scratchDir: filepath.Join(root, "scratch"),
	}
	env.outDir = filepath.Join(env.mediaRoot, "videos")
	for _, dir := range []string{env.workDir, env.outDir, env.scratchDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return env
}

func (e testEnv) job(t *testing.T, inputBase string) JobConfig {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.workDir, inputBase), []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return JobConfig{
		InputFile:      inputBase,
		OutputTitle:    "Test Title",
		WorkDir:        e.workDir,
		OutDir:         e.outDir,
		SoftwareBinary: "transcode-video",
		HardwareBinary: "other-transcode",
	}
}

func (e testEnv) options() Options {
	return Options{
		ScratchDir: e.scratchDir,
		Fallback:   true,
		Platform:   "darwin",
		Prober:     fakeProber{fourK: true},
	}
}

// stubEncoder writes a script that creates the file named by its last
// argument, optionally failing instead.
func stubEncoder(t *testing.T, dir string, fail bool) string {
	t.Helper()
	body := "#!/bin/sh\nfor last; do :; done\necho encoded > \"$last\"\n"
	if fail {
		body = "#!/bin/sh\necho encoder blew up >&2\nexit 1\n"
	}
	path := filepath.Join(dir, "stub-encoder")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestOutfileBasename(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		quality string
		movie   bool
		mp4     bool
		want    string
	}{
		{"movie with quality", "Heat (1995)", "1080p", true, false, "Heat (1995) - 1080p.mkv"},
		{"movie mp4", "Heat (1995)", "SD", true, true, "Heat (1995) - SD.m4v"},
		{"movie without quality", "Heat (1995)", "", true, false, "Heat (1995).mkv"},
		{"episode ignores quality", "Show S01E01", "1080p", false, false, "Show S01E01.mkv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := outfileBasename(tc.title, tc.quality, tc.movie, tc.mp4); got != tc.want {
				t.Fatalf("outfileBasename = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestArchiveDst(t *testing.T) {
	got, err := archiveDst("/archive", "/media", "/media/Movies/Heat (1995)/Heat (1995) - 1080p.mkv")
	if err != nil {
		t.Fatalf("archiveDst: %v", err)
	}
	want := filepath.Join("/archive", "Movies", "Heat (1995)", "Heat (1995) - 1080p")
	if got != want {
		t.Fatalf("archiveDst = %q, want %q", got, want)
	}
}

func TestArchiveDstOutsideMediaRoot(t *testing.T) {
	if _, err := archiveDst("/archive", "/media", "/elsewhere/file.mkv"); err == nil {
		t.Fatal("expected error for output outside media root")
	}
}

func TestMovieOutputNestsUnderTitleFolder(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "heat.mkv")
	cfg.Movie = true
	cfg.Quality = "1080p"

	strategy, err := newSoftware(env.options(), cfg)
	if err != nil {
		t.Fatalf("newSoftware: %v", err)
	}
	want := filepath.Join(env.outDir, "Test Title", "Test Title - 1080p.mkv")
	if strategy.OutputPath() != want {
		t.Fatalf("OutputPath = %q, want %q", strategy.OutputPath(), want)
	}
}

func TestMalformedJobMissingInput(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "present.mkv")
	cfg.InputFile = "missing.mkv"

	_, err := newSoftware(env.options(), cfg)
	if !strings.Contains(err.Error(), "input file not found") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestNeedsArchiveFalseBeforeEncodeCompletes(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.MediaRoot = env.mediaRoot
	cfg.ArchiveRoot = filepath.Join(t.TempDir(), "archive")

	strategy, err := newSoftware(env.options(), cfg)
	if err != nil {
		t.Fatalf("newSoftware: %v", err)
	}
	if strategy.NeedsArchive() {
		t.Fatal("NeedsArchive true before encoding completed")
	}
	if err := strategy.DoArchive(); err != nil {
		t.Fatalf("DoArchive: %v", err)
	}
	if strategy.archiveComplete {
		t.Fatal("archive ran before encoding completed")
	}
}

func TestSoftwareEncodeSuccess(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.SoftwareBinary = stubEncoder(t, t.TempDir(), false)

	strategy, err := newSoftware(env.options(), cfg)
	if err != nil {
		t.Fatalf("newSoftware: %v", err)
	}
	if !strategy.NeedsEncode() {
		t.Fatal("NeedsEncode false for fresh job")
	}
	if err := strategy.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	status, err := strategy.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if _, err := os.Stat(strategy.OutputPath()); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if got := len(strategy.Report().Succeeded()); got != 1 {
		t.Fatalf("succeeded = %d, want 1", got)
	}
}

func TestSoftwareEncodeFailureCapturesStderr(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.SoftwareBinary = stubEncoder(t, t.TempDir(), true)

	strategy, err := newSoftware(env.options(), cfg)
	if err != nil {
		t.Fatalf("newSoftware: %v", err)
	}
	if err := strategy.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	status, err := strategy.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status == 0 {
		t.Fatal("expected non-zero status")
	}
	failed := strategy.Report().Failed()
	if len(failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(failed))
	}
	if !strings.Contains(failed[0].ErrText, "encoder blew up") {
		t.Fatalf("stderr not captured: %q", failed[0].ErrText)
	}
	if strategy.NeedsArchive() {
		t.Fatal("failed encode must not be archived")
	}
}

func TestPassthroughCopiesInput(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Passthrough = true

	strategy, err := newPassthrough(env.options(), cfg)
	if err != nil {
		t.Fatalf("newPassthrough: %v", err)
	}
	if strategy.NeedsEncode() {
		t.Fatal("passthrough should never need an encode")
	}
	if err := strategy.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	status, err := strategy.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}

	in, err := os.ReadFile(filepath.Join(env.workDir, "a.mkv"))
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	out, err := os.ReadFile(strategy.OutputPath())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(in) != string(out) {
		t.Fatal("output is not a byte copy of the input")
	}
	if got := len(strategy.Report().Succeeded()); got != 1 {
		t.Fatalf("succeeded = %d, want 1", got)
	}
}

func TestPassthroughDryRunCopiesNothing(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Passthrough = true

	opts := env.options()
	opts.DryRun = true
	strategy, err := newPassthrough(opts, cfg)
	if err != nil {
		t.Fatalf("newPassthrough: %v", err)
	}
	if err := strategy.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	status, err := strategy.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if _, err := os.Stat(strategy.OutputPath()); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote output file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.workDir, "a.mkv.log")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote work log: %v", err)
	}
}

func TestPassthroughArchive(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "a.mkv")
	cfg.Passthrough = true
	cfg.MediaRoot = env.mediaRoot
	cfg.ArchiveRoot = filepath.Join(t.TempDir(), "archive")

	strategy, err := newPassthrough(env.options(), cfg)
	if err != nil {
		t.Fatalf("newPassthrough: %v", err)
	}
	if err := strategy.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := strategy.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !strategy.NeedsArchive() {
		t.Fatal("NeedsArchive false after successful passthrough")
	}
	if err := strategy.DoArchive(); err != nil {
		t.Fatalf("DoArchive: %v", err)
	}
	if strategy.NeedsArchive() {
		t.Fatal("NeedsArchive true after archiving")
	}

	for _, name := range []string{"a.mkv", "Test Title.mkv.log", "Test Title.mkv-config.json"} {
		if _, err := os.Stat(filepath.Join(strategy.archiveDir, name)); err != nil {
			t.Fatalf("archive missing %s: %v", name, err)
		}
	}
}

func TestHardwareCommandFor4KSource(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "uhd.mkv")
	cfg.Resize1080 = true
	opts := env.options()

	strategy, err := newHardware(context.Background(), opts, cfg)
	if err != nil {
		t.Fatalf("newHardware: %v", err)
	}
	command := strings.Join(strategy.Command(), " ")
	for _, want := range []string{"--vt", "--hevc", "--10-bit", "--1080p"} {
		if !strings.Contains(command, want) {
			t.Fatalf("command missing %s: %s", want, command)
		}
	}
	link := filepath.Join(env.scratchDir, "input", "Test Title.mkv")
	if _, err := os.Lstat(link); err != nil {
		t.Fatalf("input symlink not staged: %v", err)
	}
}

func TestHardwareSubFourKSkipsHEVC(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.job(t, "hd.mkv")
	opts := env.options()
	opts.Prober = fakeProber{fourK: false}

	strategy, err := newHardware(context.Background(), opts, cfg)
	if err != nil {
		t.Fatalf("newHardware: %v", err)
	}
	command := strings.Join(strategy.Command(), " ")
	if strings.Contains(command, "--hevc") {
		t.Fatalf("hevc enabled for sub-4K source: %s", command)
	}
	if !strings.Contains(command, "--vt") {
		t.Fatalf("command missing --vt: %s", command)
	}
}
