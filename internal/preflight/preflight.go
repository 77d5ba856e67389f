package preflight

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"batchenc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks only run when the corresponding feature is configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Working directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.MediaRoot != "" {
		results = append(results, CheckDirectoryAccess("Media root", cfg.Paths.MediaRoot))
	}
	if cfg.Paths.ArchiveRoot != "" {
		results = append(results, CheckDirectoryAccess("Archive root", cfg.Paths.ArchiveRoot))
	}

	for _, status := range CheckBinaries(requirements(cfg)) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

func requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "Software encoder",
			Command:     cfg.SoftwareBinary(),
			Description: "transcode-video, used for software encodes",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "stream inspection for the hardware resolution gate",
		},
	}
	if runtime.GOOS == "darwin" {
		reqs = append(reqs, Requirement{
			Name:        "Hardware encoder",
			Command:     cfg.HardwareBinary(),
			Description: "other-transcode, used for VideoToolbox encodes",
			Optional:    true,
		})
	}
	return reqs
}

// CheckDirectoryAccess verifies that the directory exists and is readable
// and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
