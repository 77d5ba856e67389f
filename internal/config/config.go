package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for a batch run.
type Paths struct {
	WorkDir     string `toml:"workdir"`
	OutDir      string `toml:"outdir"`
	LogDir      string `toml:"log_dir"`
	MediaRoot   string `toml:"media_root"`
	ArchiveRoot string `toml:"archive_root"`
}

// Encoding contains batch-level encoding defaults. Every field can be
// overridden per job via the job list.
type Encoding struct {
	Fallback        bool     `toml:"fallback"`
	Quality         string   `toml:"quality"`
	Crop            string   `toml:"crop"`
	Decomb          bool     `toml:"decomb"`
	MP4             bool     `toml:"mp4"`
	NoTenBit        bool     `toml:"no_ten_bit"`
	Resize1080      bool     `toml:"resize_1080p"`
	Movie           bool     `toml:"movie"`
	DisableAutoBurn bool     `toml:"disable_auto_burn"`
	BurnSubtitleNum int      `toml:"burn_subtitle_num"`
	AddSubtitle     string   `toml:"add_subtitle"`
	Chapters        string   `toml:"chapters"`
	ExtraOptions    []string `toml:"extra_options"`
	ForceSoftware   bool     `toml:"force_software"`
	SoftwareBinary  string   `toml:"software_binary"`
	HardwareBinary  string   `toml:"hardware_binary"`
	FFprobeBinary   string   `toml:"ffprobe_binary"`
}

// Job declares one batch entry: an input file plus optional overrides of the
// batch-level encoding defaults. Pointer fields distinguish "not set" from
// an explicit false/empty override.
type Job struct {
	InputFile       string   `toml:"input_file"`
	OutputTitle     string   `toml:"output_title"`
	OutDir          *string  `toml:"outdir"`
	Quality         *string  `toml:"quality"`
	Crop            *string  `toml:"crop"`
	Decomb          *bool    `toml:"decomb"`
	MP4             *bool    `toml:"mp4"`
	NoTenBit        *bool    `toml:"no_ten_bit"`
	Resize1080      *bool    `toml:"resize_1080p"`
	Movie           *bool    `toml:"movie"`
	DisableAutoBurn *bool    `toml:"disable_auto_burn"`
	BurnSubtitleNum *int     `toml:"burn_subtitle_num"`
	AddSubtitle     *string  `toml:"add_subtitle"`
	Chapters        *string  `toml:"chapters"`
	ExtraOptions    []string `toml:"extra_options"`
	Passthrough     *bool    `toml:"passthrough"`
	ForceSoftware   *bool    `toml:"force_software"`
}

// Report contains destinations for the end-of-batch report.
type Report struct {
	Path  string `toml:"path"`
	Email string `toml:"email"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History contains configuration for the batch-history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for batchenc.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Encoding      Encoding      `toml:"encoding"`
	Jobs          []Job         `toml:"jobs"`
	Report        Report        `toml:"report"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/batchenc/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("batchenc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a batch run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SoftwareBinary returns the software encoder executable name.
func (c *Config) SoftwareBinary() string {
	return binaryOrDefault(c.Encoding.SoftwareBinary, defaultSoftwareBinary)
}

// HardwareBinary returns the hardware encoder executable name.
func (c *Config) HardwareBinary() string {
	return binaryOrDefault(c.Encoding.HardwareBinary, defaultHardwareBinary)
}

// FFprobeBinary returns the stream-inspection executable name.
func (c *Config) FFprobeBinary() string {
	return binaryOrDefault(c.Encoding.FFprobeBinary, defaultFFprobeBinary)
}

// HistoryPath returns the batch-history database location.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.LogDir, "history.db")
}

func binaryOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
