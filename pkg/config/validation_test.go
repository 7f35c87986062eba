package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidAPIPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = 70000 // Out of range

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_NegativePort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative port")
	}
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for telemetry enabled without endpoint")
	}
	if !strings.Contains(err.Error(), "telemetry") && !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("Expected error about telemetry endpoint, got: %v", err)
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "localhost:4317"
	cfg.Telemetry.SampleRate = 1.5 // Out of range (should be 0.0-1.0)

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for sample rate out of range")
	}
}

func TestValidate_NoMounts(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts = nil

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for empty mount table")
	}
	if !strings.Contains(err.Error(), "mount") {
		t.Errorf("Expected error about mounts, got: %v", err)
	}
}

func TestValidate_UnknownMountType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts[0].Type = "nfs"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown mount type")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_MountMissingPoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts[0].Point = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for mount without a point")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' validation error, got: %v", err)
	}
}

func TestValidate_RelativeMountPoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts[0].Point = "data"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for relative mount point")
	}
	if !strings.Contains(err.Error(), "not absolute") {
		t.Errorf("Expected 'not absolute' error, got: %v", err)
	}
}

func TestValidate_DuplicateMountPoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts = []MountConfig{
		{Point: "/data", Type: "mem"},
		{Point: "/data/", Type: "mem"}, // Cleans to the same point
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate mount point")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected 'duplicate' error, got: %v", err)
	}
}

func TestValidate_BadgerMountWithoutPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts = []MountConfig{
		{Point: "/data", Type: "badger"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for badger mount without path")
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "badger") || !strings.Contains(errStr, "path") {
		t.Errorf("Expected error about badger path, got: %v", err)
	}

	// InMemory lifts the path requirement
	cfg.Mounts[0].Badger.InMemory = true
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected in-memory badger mount to validate, got: %v", err)
	}
}

func TestValidate_S3MountWithoutBucket(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Mounts = []MountConfig{
		{Point: "/archive", Type: "s3"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for s3 mount without bucket")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Expected error about bucket, got: %v", err)
	}
}

func TestValidate_SeedEntries(t *testing.T) {
	t.Run("AbsolutePathRejected", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Mounts[0].Seed = []SeedEntry{{Path: "/etc/hostname", Type: "file"}}

		err := Validate(cfg)
		if err == nil {
			t.Fatal("Expected validation error for absolute seed path")
		}
		if !strings.Contains(err.Error(), "relative") {
			t.Errorf("Expected 'relative' error, got: %v", err)
		}
	})

	t.Run("ParentEscapeRejected", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Mounts[0].Seed = []SeedEntry{{Path: "../outside", Type: "file"}}

		err := Validate(cfg)
		if err == nil {
			t.Fatal("Expected validation error for seed path escaping the mount")
		}
	})

	t.Run("BadModeRejected", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Mounts[0].Seed = []SeedEntry{{Path: "report.txt", Type: "file", Mode: "rwxr--r--"}}

		err := Validate(cfg)
		if err == nil {
			t.Fatal("Expected validation error for non-octal mode")
		}
		if !strings.Contains(err.Error(), "octal") {
			t.Errorf("Expected 'octal' error, got: %v", err)
		}
	})

	t.Run("UnknownSeedTypeRejected", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Mounts[0].Seed = []SeedEntry{{Path: "report.txt", Type: "symlink"}}

		err := Validate(cfg)
		if err == nil {
			t.Fatal("Expected validation error for unknown seed type")
		}
		if !strings.Contains(err.Error(), "oneof") {
			t.Errorf("Expected 'oneof' validation error, got: %v", err)
		}
	})

	t.Run("ValidSeedsAccepted", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Mounts[0].Seed = []SeedEntry{
			{Path: "etc/hostname", Type: "file", Content: "velin\n", Mode: "644"},
			{Path: "var/log", Type: "dir", Mode: "0755"},
		}

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected valid seeds to pass, got: %v", err)
		}
	})
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	// Test that validation accepts both uppercase and lowercase log levels
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		err := Validate(cfg)
		if err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}

		// Validation should NOT normalize - level should remain as-is
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	// Test that normalization happens in ApplyDefaults
	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}
