package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/velin-dev/velin/pkg/task"
)

// TasksHandler serves the live task set.
type TasksHandler struct {
	machine Machine
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(machine Machine) *TasksHandler {
	return &TasksHandler{machine: machine}
}

// TaskSummary is one row of the task listing.
type TaskSummary struct {
	PID       uint32 `json:"pid"`
	Cwd       string `json:"cwd"`
	OpenFiles int    `json:"open_files"`
}

// DescriptorInfo is one open file table entry of a task.
type DescriptorInfo struct {
	FD   int32  `json:"fd"`
	Path string `json:"path"`
	Dir  bool   `json:"dir"`
}

// TaskDetail is the full view of a single task.
type TaskDetail struct {
	PID         uint32           `json:"pid"`
	Cwd         string           `json:"cwd"`
	Descriptors []DescriptorInfo `json:"descriptors"`
}

// List handles GET /tasks - all live tasks.
//
// Returns one summary row per task: pid, working directory, and the number
// of open descriptors.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		InternalServerError(w, "machine not initialized")
		return
	}

	tasks := h.machine.Tasks()
	summaries := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, TaskSummary{
			PID:       t.PID(),
			Cwd:       t.Cwd(),
			OpenFiles: t.Descriptors().Len(),
		})
	}

	writeJSON(w, http.StatusOK, okResponse(map[string]interface{}{
		"tasks": summaries,
	}))
}

// Get handles GET /tasks/{pid} - one task with its descriptor table.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		InternalServerError(w, "machine not initialized")
		return
	}

	pid, err := strconv.ParseUint(chi.URLParam(r, "pid"), 10, 32)
	if err != nil {
		BadRequest(w, "pid must be a number")
		return
	}

	t, ok := h.machine.Task(uint32(pid))
	if !ok {
		NotFound(w, "no such task")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(taskDetail(t)))
}

func taskDetail(t *task.Task) TaskDetail {
	dump := t.Descriptors().Dump()
	descriptors := make([]DescriptorInfo, 0, len(dump))
	for _, d := range dump {
		descriptors = append(descriptors, DescriptorInfo{
			FD:   d.FD,
			Path: d.Path,
			Dir:  d.Dir,
		})
	}

	return TaskDetail{
		PID:         t.PID(),
		Cwd:         t.Cwd(),
		Descriptors: descriptors,
	}
}
