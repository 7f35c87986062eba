package config

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid values.
//
// Per-field constraints (ranges, enumerations, required fields) live in
// the struct's validate tags. Rules the tags cannot express, such as
// cross-field dependencies and mount table consistency, are checked here.
//
// Validation does not mutate the configuration; normalization happens in
// ApplyDefaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	return validateMounts(cfg.Mounts)
}

// validateMounts checks the mount table for structural problems.
func validateMounts(mounts []MountConfig) error {
	if len(mounts) == 0 {
		return fmt.Errorf("no mounts configured: at least one mount is required")
	}

	seen := make(map[string]bool, len(mounts))
	for i, m := range mounts {
		if !strings.HasPrefix(m.Point, "/") {
			return fmt.Errorf("mount #%d: point %q is not absolute", i+1, m.Point)
		}

		point := path.Clean(m.Point)
		if seen[point] {
			return fmt.Errorf("mount #%d: duplicate point %q", i+1, point)
		}
		seen[point] = true

		switch m.Type {
		case "badger":
			if m.Badger.Path == "" && !m.Badger.InMemory {
				return fmt.Errorf("mount %q: badger path cannot be empty", m.Point)
			}
		case "s3":
			if m.S3.Bucket == "" {
				return fmt.Errorf("mount %q: s3 bucket cannot be empty", m.Point)
			}
		}

		if err := validateSeeds(m.Point, m.Seed); err != nil {
			return err
		}
	}

	return nil
}

// validateSeeds checks the seed entries of one mount.
func validateSeeds(point string, seeds []SeedEntry) error {
	for i, s := range seeds {
		if s.Path == "" {
			return fmt.Errorf("mount %q: seed #%d: path cannot be empty", point, i+1)
		}
		if strings.HasPrefix(s.Path, "/") {
			return fmt.Errorf("mount %q: seed %q: path must be relative to the mount point", point, s.Path)
		}
		if clean := path.Clean(s.Path); clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("mount %q: seed %q: path escapes the mount point", point, s.Path)
		}
		if s.Mode != "" {
			if _, err := strconv.ParseUint(s.Mode, 8, 32); err != nil {
				return fmt.Errorf("mount %q: seed %q: mode %q is not valid octal", point, s.Path, s.Mode)
			}
		}
	}
	return nil
}
