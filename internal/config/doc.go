// Package config loads, normalizes, and validates batchenc's TOML
// configuration, including the per-job override list.
package config
