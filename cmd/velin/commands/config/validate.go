package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/velin-dev/velin/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the velin configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  velin config validate

  # Validate specific config file
  velin config validate --config /etc/velin/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	// Check that a root mount exists
	hasRoot := false
	for _, m := range cfg.Mounts {
		if m.Point == "/" {
			hasRoot = true
		}
		// File seeds need a writable backend; s3 mounts are read-only
		if m.Type == "s3" && len(m.Seed) > 0 {
			warnings = append(warnings, fmt.Sprintf("mount %q: seeds on a read-only s3 backend will fail at boot", m.Point))
		}
	}
	if !hasRoot {
		warnings = append(warnings, `no mount at "/" - paths outside the configured points will not resolve`)
	}

	// Check API exposure
	if cfg.API.Enabled {
		warnings = append(warnings, fmt.Sprintf("API server is enabled on port %d - it is an unauthenticated debug surface", cfg.API.Port))
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Mounts:      %d\n", len(cfg.Mounts))
	if cfg.API.Enabled {
		fmt.Printf("  API port:    %d\n", cfg.API.Port)
	} else {
		fmt.Printf("  API:         disabled\n")
	}
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics:     %d\n", cfg.Metrics.Port)
	} else {
		fmt.Printf("  Metrics:     disabled\n")
	}
	fmt.Printf("  Log level:   %s\n", cfg.Logging.Level)

	return nil
}
