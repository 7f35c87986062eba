package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration written by 'velin init'.
//
// Every scalar in here must survive both the viper load path and a plain
// yaml.Unmarshal into Config, which is why durations appear only in
// comments: yaml.v3 cannot decode "30s" into a time.Duration field.
const sampleConfig = `# Velin Configuration File
#
# Generated by 'velin init'. Every value can be overridden with a
# VELIN_* environment variable, e.g. VELIN_LOGGING_LEVEL=DEBUG.

# Logging configuration
logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Log format: text, json
  format: "text"
  # Log output: stdout, stderr, or a file path
  output: "stdout"

# Maximum time to wait for graceful shutdown (default 30s)
# shutdown_timeout: 30s

# OpenTelemetry distributed tracing (opt-in)
telemetry:
  enabled: false
  # OTLP gRPC collector endpoint
  endpoint: "localhost:4317"
  insecure: true
  sample_rate: 1.0
  # Pyroscope continuous profiling (opt-in)
  profiling:
    enabled: false
    endpoint: "http://localhost:4040"

# Prometheus metrics server (opt-in)
metrics:
  enabled: false
  port: 9090

# Control API server (opt-in, unauthenticated debug surface)
api:
  enabled: false
  port: 8080

# Mount table. Each entry attaches one filesystem backend at an absolute
# path; emulated tasks resolve every path against this tree.
# Backend types: mem (in-memory), badger (persistent), s3 (read-only bucket).
mounts:
  - point: "/"
    type: mem
    mem:
      # Bound on total content bytes; zero or absent means unbounded.
      capacity: 64Mi
    # Entries created at boot, paths relative to the mount point.
    seed:
      - path: "etc/hostname"
        content: "velin\n"
        mode: "644"
      - path: "var/log"
        type: dir

  # Persistent mount example:
  # - point: "/data"
  #   type: badger
  #   badger:
  #     path: /var/lib/velin/data

  # Read-only S3 mount example:
  # - point: "/archive"
  #   type: s3
  #   s3:
  #     bucket: my-bucket
  #     region: us-east-1
  #     key_prefix: "snapshots/"
`

// InitConfig creates a commented configuration file at the default location.
//
// Returns the path of the created file. Fails if a file already exists
// there, unless force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath creates a commented configuration file at the given path.
//
// Parent directories are created as needed. Fails if the file already
// exists, unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: mount entries may carry S3 credentials once the user edits them in.
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
