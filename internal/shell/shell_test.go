package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/velin-dev/velin/pkg/config"
	"github.com/velin-dev/velin/pkg/machine"
)

// newTestShell boots an in-memory machine with a small seeded tree and
// opens a session on it. Output accumulates in the returned buffer.
func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()

	cfg := config.GetDefaultConfig()
	cfg.Mounts[0].Seed = []config.SeedEntry{
		{Path: "etc/hostname", Type: "file", Content: "velin\n", Mode: "644"},
		{Path: "var/log", Type: "dir", Mode: "755"},
	}

	m, err := machine.Boot(ctx, cfg)
	if err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	t.Cleanup(m.Shutdown)

	out := &bytes.Buffer{}
	sh, err := New(ctx, m, strings.NewReader(""), out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return sh, out
}

// exec runs one line and fails the test on command error.
func exec(t *testing.T, sh *Shell, line string) {
	t.Helper()
	if err := sh.Exec(context.Background(), line); err != nil {
		t.Fatalf("Exec(%q) failed: %v", line, err)
	}
}

func TestExec_EmptyLine(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "")
	exec(t, sh, "   ")

	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestExec_UnknownCommand(t *testing.T) {
	sh, _ := newTestShell(t)

	err := sh.Exec(context.Background(), "frobnicate /etc")
	if err == nil {
		t.Fatal("Expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Expected unknown command error, got %v", err)
	}
}

func TestExec_PwdAndCd(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "pwd")
	if got := strings.TrimSpace(out.String()); got != "/" {
		t.Errorf("Expected /, got %q", got)
	}

	out.Reset()
	exec(t, sh, "cd /var/log")
	exec(t, sh, "pwd")
	if got := strings.TrimSpace(out.String()); got != "/var/log" {
		t.Errorf("Expected /var/log, got %q", got)
	}

	if err := sh.Exec(context.Background(), "cd /etc/hostname"); err == nil {
		t.Error("Expected error changing into a file")
	}
}

func TestExec_MountListsTable(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "mount")

	s := out.String()
	if !strings.Contains(s, "/") || !strings.Contains(s, "mem") {
		t.Errorf("Expected mount table with / and mem, got %q", s)
	}
}

func TestExec_LsListsEntries(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "ls /")
	s := out.String()
	if !strings.Contains(s, "etc") || !strings.Contains(s, "var") {
		t.Errorf("Expected etc and var in listing, got %q", s)
	}

	out.Reset()
	exec(t, sh, "ls /etc")
	s = out.String()
	if !strings.Contains(s, "hostname") || !strings.Contains(s, "file") {
		t.Errorf("Expected hostname file entry, got %q", s)
	}

	// Relative listing resolves from the working directory.
	out.Reset()
	exec(t, sh, "cd /var")
	exec(t, sh, "ls")
	if !strings.Contains(out.String(), "log") {
		t.Errorf("Expected log in relative listing, got %q", out.String())
	}
}

func TestExec_StatPrintsMetadata(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "stat /etc/hostname")

	s := out.String()
	if !strings.Contains(s, `stat("/etc/hostname") = 0`) {
		t.Errorf("Expected zero return line, got %q", s)
	}
	if !strings.Contains(s, "mode 0100644") {
		t.Errorf("Expected mode 0100644, got %q", s)
	}
	if !strings.Contains(s, "size 6") {
		t.Errorf("Expected size 6, got %q", s)
	}
}

func TestExec_StatMissingFile(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "stat /nope")

	s := out.String()
	if !strings.Contains(s, "= -2 ENOENT") {
		t.Errorf("Expected ENOENT return line, got %q", s)
	}
	if strings.Contains(s, "mode") {
		t.Errorf("Expected no metadata after failure, got %q", s)
	}
}

func TestExec_StatRelativePath(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "cd /etc")
	exec(t, sh, "stat hostname")

	if !strings.Contains(out.String(), "size 6") {
		t.Errorf("Expected relative stat to resolve from cwd, got %q", out.String())
	}
}

func TestExec_LstatReportsZeros(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "lstat /etc/hostname")

	s := out.String()
	if !strings.Contains(s, `lstat("/etc/hostname") = 0`) {
		t.Errorf("Expected zero return line, got %q", s)
	}
	if !strings.Contains(s, "size 0  blksize 0  blocks 0") {
		t.Errorf("Expected zeroed metadata, got %q", s)
	}
}

func TestExec_OpenFstatClose(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "open /etc/hostname")
	if !strings.Contains(out.String(), "fd 0") {
		t.Fatalf("Expected fd 0, got %q", out.String())
	}

	out.Reset()
	exec(t, sh, "fstat 0")
	s := out.String()
	if !strings.Contains(s, "fstat(0) = 0") {
		t.Errorf("Expected zero return line, got %q", s)
	}
	if !strings.Contains(s, "size 6") {
		t.Errorf("Expected size 6, got %q", s)
	}

	out.Reset()
	exec(t, sh, "fd")
	if !strings.Contains(out.String(), "/etc/hostname") {
		t.Errorf("Expected descriptor listing, got %q", out.String())
	}

	exec(t, sh, "close 0")

	out.Reset()
	exec(t, sh, "fstat 0")
	if !strings.Contains(out.String(), "EBADF") {
		t.Errorf("Expected EBADF after close, got %q", out.String())
	}
}

func TestExec_FstatatEmptyPath(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "open /etc/hostname")

	out.Reset()
	exec(t, sh, "fstatat 0 - empty")
	if !strings.Contains(out.String(), "size 6") {
		t.Errorf("Expected empty-path probe to stat the descriptor, got %q", out.String())
	}

	// Without the empty flag an empty pathname does not resolve.
	out.Reset()
	exec(t, sh, "fstatat 0 -")
	if !strings.Contains(out.String(), "ENOENT") {
		t.Errorf("Expected ENOENT without empty flag, got %q", out.String())
	}
}

func TestExec_FstatatDirfdRelative(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "open /etc")
	out.Reset()
	exec(t, sh, "fstatat 0 hostname")

	if !strings.Contains(out.String(), "size 6") {
		t.Errorf("Expected dirfd-relative resolution, got %q", out.String())
	}
}

func TestExec_Statx(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "statx /etc/hostname")

	s := out.String()
	if !strings.Contains(s, `statx("/etc/hostname") = 0`) {
		t.Errorf("Expected zero return line, got %q", s)
	}
	if !strings.Contains(s, "mask 0x0") {
		t.Errorf("Expected zeroed statx mask, got %q", s)
	}
	if !strings.Contains(s, "size 6") {
		t.Errorf("Expected size 6, got %q", s)
	}
}

func TestExec_StatfsConstantGeometry(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "statfs /")
	s := out.String()
	if !strings.Contains(s, "bsize 4096") || !strings.Contains(s, "namelen 255") {
		t.Errorf("Expected synthetic geometry, got %q", s)
	}

	// The stub never resolves the pathname.
	out.Reset()
	exec(t, sh, "statfs /does/not/exist")
	if !strings.Contains(out.String(), "= 0") {
		t.Errorf("Expected statfs on missing path to succeed, got %q", out.String())
	}
}

func TestExec_FstatfsNeedsValidDescriptor(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "fstatfs 7")
	if !strings.Contains(out.String(), "EBADF") {
		t.Errorf("Expected EBADF for unknown descriptor, got %q", out.String())
	}

	exec(t, sh, "open /etc/hostname")
	out.Reset()
	exec(t, sh, "fstatfs 0")
	if !strings.Contains(out.String(), "blocks 1024") {
		t.Errorf("Expected synthetic geometry, got %q", out.String())
	}
}

func TestExec_TreeManipulation(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "mkdir /tmp 700")
	exec(t, sh, "touch /tmp/a")
	exec(t, sh, "write /tmp/b hello world")
	if !strings.Contains(out.String(), "wrote 12 bytes") {
		t.Errorf("Expected write summary, got %q", out.String())
	}

	out.Reset()
	exec(t, sh, "cat /tmp/b")
	if out.String() != "hello world\n" {
		t.Errorf("Expected file content, got %q", out.String())
	}

	out.Reset()
	exec(t, sh, "stat /tmp")
	if !strings.Contains(out.String(), "mode 040700") {
		t.Errorf("Expected directory mode 040700, got %q", out.String())
	}

	exec(t, sh, "rm /tmp/a")
	if err := sh.Exec(context.Background(), "cat /tmp/a"); err == nil {
		t.Error("Expected removed file to be gone")
	}
}

func TestExec_WriteRelativePath(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "cd /var/log")
	exec(t, sh, "write today.log boot ok")

	out.Reset()
	exec(t, sh, "cat /var/log/today.log")
	if out.String() != "boot ok\n" {
		t.Errorf("Expected relative write to land in cwd, got %q", out.String())
	}
}

func TestRun_ExitCommand(t *testing.T) {
	sh, out := newTestShell(t)
	sh.in = strings.NewReader("pwd\nexit\n")

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "velin /> ") {
		t.Errorf("Expected prompt in output, got %q", out.String())
	}
}

func TestRun_EOFStops(t *testing.T) {
	sh, _ := newTestShell(t)

	if err := sh.Run(context.Background()); err != nil {
		t.Errorf("Expected clean stop on EOF, got %v", err)
	}
}

func TestRun_CommandErrorsAreReported(t *testing.T) {
	sh, out := newTestShell(t)
	sh.in = strings.NewReader("cat /nope\nexit\n")

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "error:") {
		t.Errorf("Expected command error report, got %q", out.String())
	}
}

func TestExec_HelpListsCommands(t *testing.T) {
	sh, out := newTestShell(t)

	exec(t, sh, "help")

	for _, cmd := range []string{"stat", "fstatat", "statx", "mount"} {
		if !strings.Contains(out.String(), cmd) {
			t.Errorf("Expected %s in help, got %q", cmd, out.String())
		}
	}
}
