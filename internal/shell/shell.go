// Package shell implements the interactive velin console.
//
// The shell owns one task on the machine and drives it the way an
// emulated program would: paths are planted in the task's guest memory
// and the stat family runs through the real register-level dispatcher,
// so what the console prints is exactly what a guest would decode.
// Tree-manipulation commands (mkdir, write, rm) go straight to the
// mounted backends; they exist to set up interesting trees to probe.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/velin-dev/velin/internal/adapter/linux"
	"github.com/velin-dev/velin/pkg/machine"
	"github.com/velin-dev/velin/pkg/task"
)

// ErrExit is returned by Exec when the user asks to leave the shell.
var ErrExit = errors.New("exit")

// Guest memory windows for console-issued syscalls. The path window is
// PATH_MAX wide before the reply window starts, so over-long paths fail
// inside the syscall instead of at the console.
const (
	pathWindow uint64 = 0x1000
	bufWindow  uint64 = 0x3000
)

// Shell is one interactive session bound to one task.
type Shell struct {
	machine *machine.Machine
	task    *task.Task
	in      io.Reader
	out     io.Writer
}

// New creates a session with a fresh task on the machine.
func New(ctx context.Context, m *machine.Machine, in io.Reader, out io.Writer) (*Shell, error) {
	t, err := m.CreateTask(ctx)
	if err != nil {
		return nil, fmt.Errorf("create shell task: %w", err)
	}
	return &Shell{machine: m, task: t, in: in, out: out}, nil
}

// Task returns the session's task.
func (s *Shell) Task() *task.Task {
	return s.task
}

// Close releases the session's task.
func (s *Shell) Close(ctx context.Context) error {
	return s.machine.ReleaseTask(ctx, s.task)
}

// Run reads commands line by line until exit, EOF, or cancellation.
// Command errors are printed, not returned; only the reader can fail Run.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "velin console - pid %d, type help for commands\n", s.task.PID())

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprintf(s.out, "velin %s> ", s.task.Cwd())
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.Exec(ctx, scanner.Text()); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprint(s.out, helpText)
		return nil
	case "exit", "quit":
		return ErrExit

	case "mount":
		return s.cmdMount()
	case "pwd":
		fmt.Fprintln(s.out, s.task.Cwd())
		return nil
	case "cd":
		return s.cmdCd(ctx, args)
	case "ls":
		return s.cmdLs(ctx, args)
	case "mkdir":
		return s.cmdMkdir(ctx, args)
	case "touch":
		return s.cmdTouch(ctx, args)
	case "write":
		return s.cmdWrite(ctx, args)
	case "cat":
		return s.cmdCat(ctx, args)
	case "rm":
		return s.cmdRm(ctx, args)

	case "open":
		return s.cmdOpen(ctx, args)
	case "close":
		return s.cmdClose(ctx, args)
	case "fd":
		return s.cmdFd()

	case "stat":
		return s.cmdStat(ctx, args)
	case "lstat":
		return s.cmdLstat(ctx, args)
	case "fstat":
		return s.cmdFstat(ctx, args)
	case "fstatat":
		return s.cmdFstatat(ctx, args)
	case "statx":
		return s.cmdStatx(ctx, args)
	case "statfs":
		return s.cmdStatfs(ctx, args)
	case "fstatfs":
		return s.cmdFstatfs(ctx, args)

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

// dispatch issues one syscall on the session task.
func (s *Shell) dispatch(ctx context.Context, nr uint64, args [6]uint64) (linux.Result, error) {
	return s.machine.Dispatch(ctx, s.task, linux.Invocation{Number: nr, Args: args})
}

// writePath plants a NUL-terminated path at the path window.
func (s *Shell) writePath(p string) error {
	return s.task.Memory().WriteBytes(pathWindow, append([]byte(p), 0))
}

// printRet prints the syscall return line, strace style.
func (s *Shell) printRet(call string, res linux.Result) {
	if res.Errno != 0 {
		fmt.Fprintf(s.out, "%s = %d %s\n", call, res.Value, res.Errno.Name())
		return
	}
	fmt.Fprintf(s.out, "%s = %d\n", call, res.Value)
}

const helpText = `velin console commands

  mount                               list mounted filesystems
  pwd                                 print the working directory
  cd <path>                           change the working directory
  ls [path]                           list a directory
  mkdir <path> [mode]                 create a directory (octal mode)
  touch <path>                        create an empty file
  write <path> <text...>              create or replace a file
  cat <path>                          print a file
  rm <path>                           remove a file or empty directory

  open <path>                         open a descriptor on the task
  close <fd>                          close a descriptor
  fd                                  list open descriptors

  stat <path>                         stat(2) through the dispatcher
  lstat <path>                        lstat(2); links are not modeled,
                                      the reply is all zeros
  fstat <fd>                          fstat(2) on an open descriptor
  fstatat <dirfd|cwd> <path|-> [nofollow] [empty]
                                      newfstatat(2); "-" is the empty
                                      path for AT_EMPTY_PATH probes
  statx <path> [nofollow]             statx(2) with basic stats
  statfs <path>                       statfs(2)
  fstatfs <fd>                        fstatfs(2)

  help                                this text
  exit                                leave the console
`
