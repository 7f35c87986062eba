package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/velin-dev/velin/internal/cli/output"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/vfs"
)

func (s *Shell) cmdMount() error {
	table := output.NewTableData("POINT", "BACKEND")
	for _, info := range s.machine.Mounts() {
		table.AddRow(info.Point, info.Backend)
	}
	return output.PrintTable(s.out, table)
}

func (s *Shell) cmdCd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: cd <path>")
	}
	return s.task.Chdir(ctx, args[0])
}

func (s *Shell) cmdLs(ctx context.Context, args []string) error {
	p := "."
	if len(args) > 0 {
		p = args[0]
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, p)
	if err != nil {
		return err
	}

	d, err := s.task.Filesystem().OpenDirectory(ctx, resolved, vfs.ReadOnly())
	if err != nil {
		return err
	}
	defer func() { _ = d.Close(ctx) }()

	entries, err := d.ReadDir(ctx)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	table := output.NewTableData("NAME", "TYPE", "INODE")
	for _, e := range entries {
		table.AddRow(e.Name, e.Type.String(), strconv.FormatUint(e.Ino, 10))
	}
	return output.PrintTable(s.out, table)
}

func (s *Shell) cmdMkdir(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: mkdir <path> [mode]")
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, args[0])
	if err != nil {
		return err
	}

	var mode uint32
	if len(args) == 2 {
		parsed, err := strconv.ParseUint(args[1], 8, 32)
		if err != nil {
			return fmt.Errorf("invalid mode %q: %w", args[1], err)
		}
		mode = uint32(parsed)
	}
	return s.task.Filesystem().Mkdir(ctx, resolved, mode)
}

func (s *Shell) cmdTouch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: touch <path>")
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, args[0])
	if err != nil {
		return err
	}

	f, err := s.task.Filesystem().Create(ctx, resolved, 0)
	if err != nil {
		return err
	}
	return f.Close(ctx)
}

func (s *Shell) cmdWrite(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: write <path> <text...>")
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, args[0])
	if err != nil {
		return err
	}

	data := []byte(strings.Join(args[1:], " ") + "\n")
	if err := s.machine.WriteFile(ctx, resolved, data, 0); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "wrote %d bytes\n", len(data))
	return nil
}

func (s *Shell) cmdCat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: cat <path>")
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, args[0])
	if err != nil {
		return err
	}

	f, err := s.task.Filesystem().OpenFile(ctx, resolved, vfs.ReadOnly())
	if err != nil {
		return err
	}
	defer func() { _ = f.Close(ctx) }()

	attr, err := f.Stat(ctx)
	if err != nil {
		return err
	}

	buf := make([]byte, attr.Size)
	n, err := f.ReadAt(ctx, buf, 0)
	if err != nil {
		return err
	}
	if _, err := s.out.Write(buf[:n]); err != nil {
		return err
	}
	if n > 0 && buf[n-1] != '\n' {
		fmt.Fprintln(s.out)
	}
	return nil
}

func (s *Shell) cmdRm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rm <path>")
	}
	resolved, err := s.task.ResolvePath(task.FDCWD, args[0])
	if err != nil {
		return err
	}
	return s.task.Filesystem().Remove(ctx, resolved)
}

func (s *Shell) cmdOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open <path>")
	}
	fd, err := s.task.OpenAt(ctx, task.FDCWD, args[0], vfs.ReadOnly())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "fd %d\n", fd)
	return nil
}

func (s *Shell) cmdClose(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: close <fd>")
	}
	fd, err := parseFD(args[0])
	if err != nil {
		return err
	}
	return s.task.Close(ctx, fd)
}

func (s *Shell) cmdFd() error {
	descs := s.task.Descriptors().Dump()

	table := output.NewTableData("FD", "PATH", "KIND")
	for _, d := range descs {
		kind := "file"
		if d.Dir {
			kind = "dir"
		}
		table.AddRow(strconv.FormatInt(int64(d.FD), 10), d.Path, kind)
	}
	return output.PrintTable(s.out, table)
}

func parseFD(s string) (int32, error) {
	fd, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid descriptor %q: %w", s, err)
	}
	return int32(fd), nil
}
