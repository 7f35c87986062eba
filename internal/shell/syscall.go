package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/cli/timeutil"
)

func (s *Shell) cmdStat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: stat <path>")
	}
	if err := s.writePath(args[0]); err != nil {
		return err
	}

	res, err := s.dispatch(ctx, abi.SysStat, [6]uint64{pathWindow, bufWindow})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("stat(%q)", args[0]), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStat()
}

func (s *Shell) cmdLstat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lstat <path>")
	}
	if err := s.writePath(args[0]); err != nil {
		return err
	}

	res, err := s.dispatch(ctx, abi.SysLstat, [6]uint64{pathWindow, bufWindow})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("lstat(%q)", args[0]), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStat()
}

func (s *Shell) cmdFstat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fstat <fd>")
	}
	fd, err := parseFD(args[0])
	if err != nil {
		return err
	}

	res, err := s.dispatch(ctx, abi.SysFstat, [6]uint64{uint64(uint32(fd)), bufWindow})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("fstat(%d)", fd), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStat()
}

func (s *Shell) cmdFstatat(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: fstatat <dirfd|cwd> <path|-> [nofollow] [empty]")
	}

	dirfd := abi.AT_FDCWD
	if args[0] != "cwd" {
		fd, err := parseFD(args[0])
		if err != nil {
			return err
		}
		dirfd = fd
	}

	p := args[1]
	if p == "-" {
		p = ""
	}

	var flags uint32
	for _, f := range args[2:] {
		switch f {
		case "nofollow":
			flags |= abi.AT_SYMLINK_NOFOLLOW
		case "empty":
			flags |= abi.AT_EMPTY_PATH
		default:
			return fmt.Errorf("unknown flag %q", f)
		}
	}

	if err := s.writePath(p); err != nil {
		return err
	}
	res, err := s.dispatch(ctx, abi.SysNewfstatat, [6]uint64{
		uint64(int64(dirfd)), pathWindow, bufWindow, uint64(flags),
	})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("newfstatat(%s, %q, %#x)", args[0], p, flags), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStat()
}

func (s *Shell) cmdStatx(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: statx <path> [nofollow]")
	}

	var flags uint32
	if len(args) == 2 {
		if args[1] != "nofollow" {
			return fmt.Errorf("unknown flag %q", args[1])
		}
		flags = abi.AT_SYMLINK_NOFOLLOW
	}

	if err := s.writePath(args[0]); err != nil {
		return err
	}
	dirfd := int64(abi.AT_FDCWD)
	res, err := s.dispatch(ctx, abi.SysStatx, [6]uint64{
		uint64(dirfd), pathWindow, uint64(flags), abi.STATX_BASIC_STATS, bufWindow,
	})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("statx(%q)", args[0]), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStatx()
}

func (s *Shell) cmdStatfs(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: statfs <path>")
	}
	if err := s.writePath(args[0]); err != nil {
		return err
	}

	res, err := s.dispatch(ctx, abi.SysStatfs, [6]uint64{pathWindow, bufWindow})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("statfs(%q)", args[0]), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStatfs()
}

func (s *Shell) cmdFstatfs(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fstatfs <fd>")
	}
	fd, err := parseFD(args[0])
	if err != nil {
		return err
	}

	res, err := s.dispatch(ctx, abi.SysFstatfs, [6]uint64{uint64(uint32(fd)), bufWindow})
	if err != nil {
		return err
	}
	s.printRet(fmt.Sprintf("fstatfs(%d)", fd), res)
	if res.Errno != 0 {
		return nil
	}
	return s.printStatfs()
}

func (s *Shell) printStat() error {
	buf := make([]byte, abi.StatSize)
	if err := s.task.Memory().ReadBytes(bufWindow, buf); err != nil {
		return err
	}
	st, err := abi.DecodeStat(buf)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "  dev %d  ino %d  nlink %d\n", st.Dev, st.Ino, st.Nlink)
	fmt.Fprintf(s.out, "  mode %#o  uid %d  gid %d\n", st.Mode, st.UID, st.GID)
	fmt.Fprintf(s.out, "  size %d  blksize %d  blocks %d\n", st.Size, st.Blksize, st.Blocks)
	fmt.Fprintf(s.out, "  atime %s\n", timeutil.FormatUnix(st.Atime, uint32(st.AtimeNsec)))
	fmt.Fprintf(s.out, "  mtime %s\n", timeutil.FormatUnix(st.Mtime, uint32(st.MtimeNsec)))
	fmt.Fprintf(s.out, "  ctime %s\n", timeutil.FormatUnix(st.Ctime, uint32(st.CtimeNsec)))
	return nil
}

func (s *Shell) printStatx() error {
	buf := make([]byte, abi.StatxSize)
	if err := s.task.Memory().ReadBytes(bufWindow, buf); err != nil {
		return err
	}
	sx, err := abi.DecodeStatx(buf)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "  mask %#x  dev %d:%d  ino %d  nlink %d\n",
		sx.Mask, sx.DevMajor, sx.DevMinor, sx.Ino, sx.Nlink)
	fmt.Fprintf(s.out, "  mode %#o  uid %d  gid %d\n", sx.Mode, sx.UID, sx.GID)
	fmt.Fprintf(s.out, "  size %d  blksize %d  blocks %d\n", sx.Size, sx.Blksize, sx.Blocks)
	fmt.Fprintf(s.out, "  atime %s\n", timeutil.FormatUnix(sx.Atime.Sec, sx.Atime.Nsec))
	fmt.Fprintf(s.out, "  mtime %s\n", timeutil.FormatUnix(sx.Mtime.Sec, sx.Mtime.Nsec))
	fmt.Fprintf(s.out, "  ctime %s\n", timeutil.FormatUnix(sx.Ctime.Sec, sx.Ctime.Nsec))
	return nil
}

func (s *Shell) printStatfs() error {
	buf := make([]byte, abi.StatfsSize)
	if err := s.task.Memory().ReadBytes(bufWindow, buf); err != nil {
		return err
	}
	f, err := abi.DecodeStatfs(buf)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "  type %#x  bsize %d  namelen %d\n", f.Type, f.Bsize, f.Namelen)
	fmt.Fprintf(s.out, "  blocks %d  bfree %d  bavail %d\n", f.Blocks, f.Bfree, f.Bavail)
	fmt.Fprintf(s.out, "  files %d  ffree %d\n", f.Files, f.Ffree)
	return nil
}
