package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/internal/shell"
	"github.com/velin-dev/velin/pkg/config"
	"github.com/velin-dev/velin/pkg/machine"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive console on an emulated machine",
	Long: `Start an interactive console on an emulated machine.

The console boots the configured mounts, creates a single task, and
accepts commands against its filesystem view. Tree commands (ls, mkdir,
cat) use the machine API directly; the stat family (stat, fstat, lstat,
fstatat, statx, statfs) goes through the register-level syscall
dispatcher, so replies are decoded from the task's guest memory exactly
as an emulated program would see them.

Runs with built-in defaults (a single in-memory mount at /) when no
configuration file exists.

Examples:
  # Explore the default in-memory machine
  velin shell

  # Use a custom mount table
  velin shell --config ./velin.yaml`,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := machine.Boot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to boot machine: %w", err)
	}
	defer m.Shutdown()

	sh, err := shell.New(ctx, m, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := sh.Close(context.Background()); err != nil {
			logger.Warn("Shell task release error", "error", err)
		}
	}()

	return sh.Run(ctx)
}
