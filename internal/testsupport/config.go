// Package testsupport provides shared helpers for package tests: canned
// configurations with per-test temp directories and stub encoder binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"batchenc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The output directory is nested under the media root so archive path
// computation works out of the box.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.MediaRoot = filepath.Join(base, "media")
	cfgVal.Paths.OutDir = filepath.Join(base, "media", "videos")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Enabled = false

	for _, dir := range []string{cfgVal.Paths.WorkDir, cfgVal.Paths.OutDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithArchive enables archiving into a temp archive root.
func WithArchive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ArchiveRoot = filepath.Join(b.baseDir, "archive")
	}
}

// WithJob appends a job declaration and creates its input file in the
// working directory.
func WithJob(inputBase, title string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, filepath.Join(b.cfg.Paths.WorkDir, inputBase), "video bytes")
		b.cfg.Jobs = append(b.cfg.Jobs, config.Job{InputFile: inputBase, OutputTitle: title})
	}
}

// WithStubSoftwareEncoder points the software encoder at a stub script.
// The stub creates the file named by its final argument; inputs whose name
// contains "fail" make it exit non-zero instead.
func WithStubSoftwareEncoder() ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\n" +
			"case \"$*\" in *fail*) echo \"stub encoder failure\" >&2; exit 1;; esac\n" +
			"for last; do :; done\n" +
			"echo encoded > \"$last\"\n"
		path := filepath.Join(b.baseDir, "stub-transcode-video")
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub encoder: %v", err)
		}
		b.cfg.Encoding.SoftwareBinary = path
	}
}

// WriteFile creates a file with the given content, making parent
// directories as needed.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
