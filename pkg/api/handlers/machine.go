package handlers

import (
	"context"

	"github.com/velin-dev/velin/internal/adapter/linux"
	"github.com/velin-dev/velin/pkg/mount"
	"github.com/velin-dev/velin/pkg/task"
)

// Machine is the running emulator surface the debug API serves from.
//
// It is satisfied by pkg/machine. Handlers depend on this interface so the
// API package stays importable from the machine without a cycle.
type Machine interface {
	// Mounts returns the live mount table.
	Mounts() []mount.Info

	// Tasks returns the live tasks in ascending pid order.
	Tasks() []*task.Task

	// Task looks up a live task by pid.
	Task(pid uint32) (*task.Task, bool)

	// CreateTask provisions a fresh task with its own guest memory,
	// rooted at / with an empty descriptor table.
	CreateTask(ctx context.Context) (*task.Task, error)

	// ReleaseTask closes the task's descriptors and retires its pid.
	ReleaseTask(ctx context.Context, t *task.Task) error

	// Dispatch executes one raw syscall invocation on behalf of a task.
	Dispatch(ctx context.Context, t *task.Task, call linux.Invocation) (linux.Result, error)
}
