package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/internal/telemetry"
	"github.com/velin-dev/velin/pkg/config"
	"github.com/velin-dev/velin/pkg/machine"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the velin machine",
	Long: `Start the velin machine with the specified configuration.

The machine mounts the configured filesystem backends, exposes the REST
API and metrics endpoints when enabled, and runs in the foreground until
interrupted.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/velin/config.yaml.

Examples:
  # Start with the default config file
  velin start

  # Start with a custom config file
  velin start --config /etc/velin/config.yaml

  # Start with environment variable overrides
  VELIN_LOGGING_LEVEL=DEBUG velin start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "velin",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "velin",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("Velin - Linux stat syscall emulator")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Assemble the machine (mounts, metrics, API server)
	m, err := machine.Boot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to boot machine: %w", err)
	}

	// Run the machine in the background
	machineDone := make(chan error, 1)
	go func() {
		machineDone <- m.Run(ctx)
	}()

	// Wait for interrupt signal or machine error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Machine is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for the machine to shut down gracefully
		if err := <-machineDone; err != nil {
			logger.Error("Machine shutdown error", "error", err)
			return err
		}
		logger.Info("Machine stopped gracefully")

	case err := <-machineDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Machine error", "error", err)
			return err
		}
		logger.Info("Machine stopped")
	}

	return nil
}
