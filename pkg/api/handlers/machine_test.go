package handlers

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/velin-dev/velin/internal/adapter/linux"
	"github.com/velin-dev/velin/pkg/mount"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/usermem"
	"github.com/velin-dev/velin/pkg/vfs/memfs"
)

// testMachine is a minimal Machine over a real mount table and the real
// dispatcher, so handler tests exercise the same pipeline a booted
// emulator would.
type testMachine struct {
	ns      *mount.Namespace
	adapter *linux.Adapter

	mu      sync.Mutex
	nextPID uint32
	tasks   map[uint32]*task.Task
}

func newEmptyTestMachine() *testMachine {
	return &testMachine{
		ns:      mount.New(),
		adapter: linux.New(nil),
		nextPID: 1,
		tasks:   make(map[uint32]*task.Task),
	}
}

// newTestMachine builds a machine with a root memory mount holding
// /report.txt and /data.
func newTestMachine(t *testing.T) *testMachine {
	t.Helper()
	ctx := context.Background()

	fs := memfs.New()
	if err := fs.WriteFile(ctx, "/report.txt", []byte("quarterly numbers\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.Mkdir(ctx, "/data", 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	m := newEmptyTestMachine()
	if err := m.ns.Mount("/", "mem", fs); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	return m
}

func (m *testMachine) Mounts() []mount.Info {
	return m.ns.Table()
}

func (m *testMachine) Tasks() []*task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].PID() < tasks[j].PID() })
	return tasks
}

func (m *testMachine) Task(pid uint32) (*task.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[pid]
	return t, ok
}

func (m *testMachine) CreateTask(ctx context.Context) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := task.New(m.nextPID, m.ns, usermem.NewFlatMemory(1<<16))
	m.tasks[m.nextPID] = t
	m.nextPID++
	return t, nil
}

func (m *testMachine) ReleaseTask(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	delete(m.tasks, t.PID())
	m.mu.Unlock()
	return t.Release(ctx)
}

func (m *testMachine) Dispatch(ctx context.Context, t *task.Task, call linux.Invocation) (linux.Result, error) {
	return m.adapter.Dispatch(ctx, t, call)
}
