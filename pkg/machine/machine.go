// Package machine assembles a bootable emulator from configuration:
// mounted filesystem backends, the syscall adapter, the live task set,
// and the optional debug API and metrics servers.
//
// The Machine is the process-wide composition root. Everything below it
// (mounts, tasks, dispatch) is usable on its own; the machine only wires
// the pieces together and owns their lifecycle.
package machine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/velin-dev/velin/internal/adapter/linux"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/api"
	"github.com/velin-dev/velin/pkg/api/handlers"
	"github.com/velin-dev/velin/pkg/config"
	"github.com/velin-dev/velin/pkg/metrics"
	"github.com/velin-dev/velin/pkg/mount"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/usermem"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultTaskMemory is the guest address space given to each task. One
// megabyte leaves room for PATH_MAX paths and every reply buffer with
// pages to spare.
const DefaultTaskMemory uint64 = 1 << 20

// AuxiliaryServer is an interface for auxiliary HTTP servers (API,
// metrics) managed alongside the machine.
type AuxiliaryServer interface {
	// Start starts the HTTP server and blocks until context is cancelled or error.
	Start(ctx context.Context) error
	// Stop initiates graceful shutdown.
	Stop(ctx context.Context) error
	// Port returns the TCP port the server is listening on.
	Port() int
}

// backendRef tracks a mounted backend that needs closing at shutdown.
type backendRef struct {
	point  string
	closer io.Closer
}

// usageReporter is the optional backend extension the bytes-used gauge
// samples. Only backends that can report usage cheaply provide it.
type usageReporter interface {
	Used() uint64
}

// usageRef samples content usage for one mount's gauge.
type usageRef struct {
	point string
	used  func() uint64
}

// Machine is one running emulator instance.
//
// It owns the mount namespace, allocates pids, and routes raw syscall
// invocations through the adapter. All methods are safe for concurrent
// use.
type Machine struct {
	mu sync.RWMutex

	ns       *mount.Namespace
	adapter  *linux.Adapter
	backends []backendRef

	// raw maps each mounted filesystem back to the bare backend it wraps,
	// so content writes can reach WriteFile behind the metrics wrapper.
	raw map[vfs.Filesystem]vfs.Filesystem

	tasks      map[uint32]*task.Task
	nextPID    uint32
	taskMemory uint64

	syscallMetrics metrics.SyscallMetrics
	vfsMetrics     metrics.VFSMetrics
	usage          []usageRef

	apiServer     AuxiliaryServer
	metricsServer *http.Server

	shutdownTimeout time.Duration

	runOnce      sync.Once
	running      bool
	shutdownOnce sync.Once
}

// The debug API serves directly from the machine.
var _ handlers.Machine = (*Machine)(nil)

// New creates an empty machine: no mounts, no tasks, no servers. Tests
// and the shell add mounts through Boot or a hand-built config.
func New() *Machine {
	return &Machine{
		ns:              mount.New(),
		adapter:         linux.New(nil),
		raw:             make(map[vfs.Filesystem]vfs.Filesystem),
		tasks:           make(map[uint32]*task.Task),
		nextPID:         1,
		taskMemory:      DefaultTaskMemory,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Boot assembles a machine from a loaded configuration.
//
// Backends are created and seeded before they are mounted, so a task can
// never observe a half-provisioned tree. When metrics are enabled every
// backend is wrapped with operation timing and the adapter records
// per-syscall series. The API server is wired but not started; call Run.
//
// On error, any backend already opened is closed again.
func Boot(ctx context.Context, cfg *config.Config) (*Machine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	metricsResult := config.InitializeMetrics(cfg)

	m := New()
	m.adapter = linux.New(metricsResult.Syscalls)
	m.syscallMetrics = metricsResult.Syscalls
	m.SetShutdownTimeout(cfg.ShutdownTimeout)

	for i := range cfg.Mounts {
		mc := &cfg.Mounts[i]
		backend := mc.Type
		if backend == "" {
			backend = "mem"
		}

		fs, err := config.CreateFilesystem(ctx, *mc)
		if err != nil {
			m.closeBackends()
			return nil, fmt.Errorf("mount %q: %w", mc.Point, err)
		}
		if closer, ok := fs.(io.Closer); ok {
			m.backends = append(m.backends, backendRef{point: mc.Point, closer: closer})
		}

		// Seeds write through the raw backend: the instrumented wrapper
		// only carries the Filesystem interface.
		if err := seedMount(ctx, fs, mc); err != nil {
			m.closeBackends()
			return nil, fmt.Errorf("mount %q: %w", mc.Point, err)
		}

		instrumented := metrics.InstrumentFilesystem(fs, metricsResult.VFS, backend)
		if err := m.ns.Mount(mc.Point, backend, instrumented); err != nil {
			m.closeBackends()
			return nil, fmt.Errorf("mount %q: %w", mc.Point, err)
		}
		m.raw[instrumented] = fs

		if u, ok := fs.(usageReporter); ok {
			m.usage = append(m.usage, usageRef{point: mc.Point, used: u.Used})
		}

		logger.Info("Filesystem mounted",
			"point", mc.Point,
			"backend", backend,
			"seeds", len(mc.Seed))
	}

	m.vfsMetrics = metricsResult.VFS
	if m.vfsMetrics != nil {
		m.vfsMetrics.SetMounts(len(m.ns.Table()))
		m.publishUsage()
	}

	if cfg.API.Enabled {
		m.SetAPIServer(api.NewServer(cfg.API, m))
	}
	if metricsResult.Server != nil {
		m.SetMetricsServer(metricsResult.Server)
	}

	return m, nil
}

// ============================================================================
// Task Management
// ============================================================================

// CreateTask provisions a fresh task: the next pid, its own flat guest
// memory, an empty descriptor table, and the machine's mount namespace as
// its filesystem view.
func (m *Machine) CreateTask(ctx context.Context) (*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	pid := m.nextPID
	m.nextPID++
	t := task.New(pid, m.ns, usermem.NewFlatMemory(m.taskMemory))
	m.tasks[pid] = t
	active := len(m.tasks)
	m.mu.Unlock()

	if m.syscallMetrics != nil {
		m.syscallMetrics.RecordTaskCreated()
		m.syscallMetrics.SetActiveTasks(int32(active))
	}

	logger.Debug("Task created", "pid", pid)
	return t, nil
}

// ReleaseTask closes the task's descriptors and retires its pid. Fails if
// the task is not (or no longer) registered with this machine.
func (m *Machine) ReleaseTask(ctx context.Context, t *task.Task) error {
	m.mu.Lock()
	_, ok := m.tasks[t.PID()]
	delete(m.tasks, t.PID())
	active := len(m.tasks)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("task %d is not registered", t.PID())
	}

	if m.syscallMetrics != nil {
		m.syscallMetrics.RecordTaskReleased()
		m.syscallMetrics.SetActiveTasks(int32(active))
	}

	logger.Debug("Task released", "pid", t.PID())
	return t.Release(ctx)
}

// Tasks returns the live tasks in ascending pid order.
func (m *Machine) Tasks() []*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].PID() < tasks[j].PID() })
	return tasks
}

// Task looks up a live task by pid.
func (m *Machine) Task(pid uint32) (*task.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[pid]
	return t, ok
}

// Dispatch executes one raw syscall invocation on behalf of a task.
func (m *Machine) Dispatch(ctx context.Context, t *task.Task, call linux.Invocation) (linux.Result, error) {
	return m.adapter.Dispatch(ctx, t, call)
}

// Mounts returns the live mount table.
func (m *Machine) Mounts() []mount.Info {
	return m.ns.Table()
}

// WriteFile creates or replaces a whole file through the backend owning
// p. Backends without content support report the mount as read-only.
// Mode 0 means the backend default.
func (m *Machine) WriteFile(ctx context.Context, p string, data []byte, mode uint32) error {
	fs, rel, err := m.ns.Resolve(p)
	if err != nil {
		return err
	}
	if rawFS, ok := m.raw[fs]; ok {
		fs = rawFS
	}
	w, ok := fs.(contentWriter)
	if !ok {
		return vfserrors.NewReadOnlyError(p)
	}
	if err := w.WriteFile(ctx, rel, data, mode); err != nil {
		return err
	}
	m.publishUsage()
	return nil
}

// publishUsage republishes the bytes-used gauge for every mount that
// reports usage.
func (m *Machine) publishUsage() {
	if m.vfsMetrics == nil {
		return
	}
	for _, u := range m.usage {
		m.vfsMetrics.SetBytesUsed(u.point, u.used())
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// SetShutdownTimeout sets the maximum time graceful shutdown may take.
func (m *Machine) SetShutdownTimeout(d time.Duration) {
	if d == 0 {
		d = DefaultShutdownTimeout
	}
	m.shutdownTimeout = d
}

// SetAPIServer sets the debug API server managed by Run.
func (m *Machine) SetAPIServer(server AuxiliaryServer) {
	if m.isRunning() {
		panic("cannot set API server after Run() has been called")
	}
	m.apiServer = server
	if server != nil {
		logger.Info("API server registered", "port", server.Port())
	}
}

// SetMetricsServer sets the /metrics HTTP server managed by Run.
func (m *Machine) SetMetricsServer(server *http.Server) {
	if m.isRunning() {
		panic("cannot set metrics server after Run() has been called")
	}
	m.metricsServer = server
	if server != nil {
		logger.Info("Metrics server registered", "addr", server.Addr)
	}
}

func (m *Machine) isRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Run starts the auxiliary servers and blocks until the context is
// cancelled or a server fails, then shuts the machine down. Returns nil
// on a clean, signal-driven stop. Run is a no-op after the first call.
func (m *Machine) Run(ctx context.Context) error {
	var err error
	m.runOnce.Do(func() {
		m.mu.Lock()
		m.running = true
		m.mu.Unlock()
		err = m.run(ctx)
	})
	return err
}

func (m *Machine) run(ctx context.Context) error {
	logger.Info("Starting velin machine", "mounts", len(m.ns.Table()))

	apiErrChan := make(chan error, 1)
	if m.apiServer != nil {
		go func() {
			if err := m.apiServer.Start(ctx); err != nil {
				apiErrChan <- err
			}
		}()
	}

	metricsErrChan := make(chan error, 1)
	if m.metricsServer != nil {
		go func() {
			logger.Info("Metrics server listening", "addr", m.metricsServer.Addr)
			if err := m.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				metricsErrChan <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", ctx.Err())
	case err := <-apiErrChan:
		logger.Error("API server failed - initiating shutdown", "error", err)
		runErr = fmt.Errorf("API server error: %w", err)
	case err := <-metricsErrChan:
		logger.Error("Metrics server failed - initiating shutdown", "error", err)
		runErr = fmt.Errorf("metrics server error: %w", err)
	}

	m.Shutdown()
	logger.Info("velin machine stopped")
	return runErr
}

// Shutdown releases every task, stops the auxiliary servers, and closes
// the storage backends, bounded by the shutdown timeout. Safe to call
// more than once; only the first call does the work.
func (m *Machine) Shutdown() {
	m.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
		defer cancel()

		// Tasks go first so descriptor closes still hit open backends.
		m.releaseAllTasks(ctx)

		if m.apiServer != nil {
			logger.Debug("Stopping API server")
			if err := m.apiServer.Stop(ctx); err != nil {
				logger.Error("API server shutdown error", "error", err)
			}
		}

		if m.metricsServer != nil {
			logger.Debug("Stopping metrics server")
			if err := m.metricsServer.Shutdown(ctx); err != nil {
				logger.Error("Metrics server shutdown error", "error", err)
			}
		}

		m.closeBackends()
	})
}

func (m *Machine) releaseAllTasks(ctx context.Context) {
	m.mu.Lock()
	tasks := make([]*task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.tasks = make(map[uint32]*task.Task)
	m.mu.Unlock()

	for _, t := range tasks {
		if err := t.Release(ctx); err != nil {
			logger.Warn("Task release error", "pid", t.PID(), "error", err)
		}
		if m.syscallMetrics != nil {
			m.syscallMetrics.RecordTaskReleased()
		}
	}
	if m.syscallMetrics != nil {
		m.syscallMetrics.SetActiveTasks(0)
	}
}

// closeBackends closes mounted backends in reverse mount order.
func (m *Machine) closeBackends() {
	for i := len(m.backends) - 1; i >= 0; i-- {
		b := m.backends[i]
		logger.Debug("Closing backend", "point", b.point)
		if err := b.closer.Close(); err != nil {
			logger.Error("Backend close error", "point", b.point, "error", err)
		}
	}
	m.backends = nil
}
