package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/velin-dev/velin/internal/cli/prompt"
	"github.com/velin-dev/velin/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample velin configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/velin/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  velin init

  # Initialize with custom path
  velin init --config /etc/velin/config.yaml

  # Force overwrite existing config
  velin init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompt.ConfirmWithForce(fmt.Sprintf("Configuration file already exists at %s. Overwrite", configPath), initForce)
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
		force = true
	}

	if err := config.InitConfigToPath(configPath, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your mounts")
	fmt.Println("  2. Start the machine with: velin start")
	fmt.Printf("  3. Or specify custom config: velin start --config %s\n", configPath)
	fmt.Println("  4. Explore the mounted tree with: velin shell")

	return nil
}
