package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeTestConfig lays out a minimal runnable configuration with a stub
// software encoder and one job.
func writeTestConfig(t *testing.T, jobs string) string {
	t.Helper()
	base := t.TempDir()
	workDir := filepath.Join(base, "work")
	outDir := filepath.Join(base, "out")
	logDir := filepath.Join(base, "logs")
	for _, dir := range []string{workDir, outDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	stub := filepath.Join(base, "stub-encoder")
	script := "#!/bin/sh\nfor last; do :; done\necho encoded > \"$last\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	content := fmt.Sprintf(`[paths]
workdir = %q
outdir = %q
log_dir = %q

[encoding]
fallback = true
software_binary = %q

[history]
enabled = false

%s`, workDir, outDir, logDir, stub, jobs)

	path := filepath.Join(base, "batchenc.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing paths section:\n%s", data)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with overwrite: %v", err)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	path := writeTestConfig(t, "")
	out, err := runCommand(t, "config", "validate", "-c", path)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestJobsCommandEmptyLedger(t *testing.T) {
	path := writeTestConfig(t, "")
	out, err := runCommand(t, "jobs", "-c", path)
	if err != nil {
		t.Fatalf("jobs: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ledger is empty") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEncodeCommandRunsBatch(t *testing.T) {
	jobs := `[[jobs]]
input_file = "movie.mkv"
output_title = "Movie"
`
	path := writeTestConfig(t, jobs)
	workDir := filepath.Join(filepath.Dir(path), "work")
	if err := os.WriteFile(filepath.Join(workDir, "movie.mkv"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, err := runCommand(t, "encode", "-c", path)
	if err != nil {
		t.Fatalf("encode: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Video Encoding Report") {
		t.Fatalf("report not printed:\n%s", out)
	}
	if !strings.Contains(out, "Movie.mkv") {
		t.Fatalf("encoded file missing from report:\n%s", out)
	}

	outDir := filepath.Join(filepath.Dir(path), "out")
	if _, err := os.Stat(filepath.Join(outDir, "Movie.mkv")); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	// All jobs completed, so the ledger is gone.
	if _, err := os.Stat(filepath.Join(workDir, "jobs.json")); !os.IsNotExist(err) {
		t.Fatalf("ledger not cleared: %v", err)
	}
}

func TestEncodeCommandReportsFailures(t *testing.T) {
	jobs := `[[jobs]]
input_file = "movie.mkv"
output_title = "Movie"
`
	path := writeTestConfig(t, jobs)
	base := filepath.Dir(path)
	workDir := filepath.Join(base, "work")
	if err := os.WriteFile(filepath.Join(workDir, "movie.mkv"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	// Replace the stub with one that always fails.
	stub := filepath.Join(base, "stub-encoder")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho boom >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("rewrite stub: %v", err)
	}

	out, err := runCommand(t, "encode", "-c", path)
	if err == nil {
		t.Fatalf("expected non-zero result for failed batch:\n%s", out)
	}
	if !strings.Contains(err.Error(), "1 job(s) failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	// The failed job's record survives for the next invocation.
	if _, statErr := os.Stat(filepath.Join(workDir, "jobs.json")); statErr != nil {
		t.Fatalf("ledger missing after failure: %v", statErr)
	}
}
