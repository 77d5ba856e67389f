package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrArchivePath marks archive/media root misconfiguration. It is raised at
// config load, before any encode starts.
var ErrArchivePath = errors.New("archive path configuration")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.workdir must be set")
	}
	if strings.TrimSpace(c.Paths.OutDir) == "" {
		return errors.New("paths.outdir must be set")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if strings.TrimSpace(c.Paths.ArchiveRoot) == "" {
		return nil
	}
	if strings.TrimSpace(c.Paths.MediaRoot) == "" {
		return fmt.Errorf("%w: archive_root provided without media_root", ErrArchivePath)
	}
	rel, err := filepath.Rel(c.Paths.MediaRoot, c.Paths.OutDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: outdir %s is not under media_root %s", ErrArchivePath, c.Paths.OutDir, c.Paths.MediaRoot)
	}
	return nil
}

func (c *Config) validateJobs() error {
	for i, job := range c.Jobs {
		if strings.TrimSpace(job.InputFile) == "" {
			return fmt.Errorf("jobs[%d]: input_file must be set", i)
		}
	}
	return nil
}
