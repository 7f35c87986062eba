package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/velin-dev/velin/internal/adapter/linux"
	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/pkg/usermem"
)

// Guest memory layout of the probe task. The pages at probePathAddr hold
// the NUL-terminated path, probeBufAddr the syscall's output buffer. The
// gap between them is larger than PATH_MAX, so over-long paths still land
// in guest memory and fail through the syscall itself.
const (
	probePathAddr uint64 = 0x1000
	probeBufAddr  uint64 = 0x3000
)

// StatHandler runs stat syscalls against the live mount table.
//
// Each probe provisions a throwaway task, plants the requested path in its
// guest memory, and dispatches a real register-level invocation. The reply
// buffer is decoded back out of task memory, so the endpoint exercises the
// same pipeline a guest program would.
type StatHandler struct {
	machine Machine
}

// NewStatHandler creates a new stat handler.
func NewStatHandler(machine Machine) *StatHandler {
	return &StatHandler{machine: machine}
}

// StatView is the decoded stat record of a successful probe.
type StatView struct {
	Dev     uint64 `json:"dev"`
	Ino     uint64 `json:"ino"`
	Mode    string `json:"mode"`
	Nlink   uint64 `json:"nlink"`
	UID     uint32 `json:"uid"`
	GID     uint32 `json:"gid"`
	Size    int64  `json:"size"`
	Blksize int64  `json:"blksize"`
	Blocks  int64  `json:"blocks"`
	Atime   string `json:"atime"`
	Mtime   string `json:"mtime"`
	Ctime   string `json:"ctime"`
}

// StatxView is the decoded statx record of a successful probe.
type StatxView struct {
	Mask      uint32 `json:"mask"`
	Mode      string `json:"mode"`
	Nlink     uint32 `json:"nlink"`
	UID       uint32 `json:"uid"`
	GID       uint32 `json:"gid"`
	Ino       uint64 `json:"ino"`
	Size      uint64 `json:"size"`
	Blksize   uint32 `json:"blksize"`
	Blocks    uint64 `json:"blocks"`
	Atime     string `json:"atime"`
	Btime     string `json:"btime"`
	Ctime     string `json:"ctime"`
	Mtime     string `json:"mtime"`
	DevMajor  uint32 `json:"dev_major"`
	DevMinor  uint32 `json:"dev_minor"`
	RdevMajor uint32 `json:"rdev_major"`
	RdevMinor uint32 `json:"rdev_minor"`
}

// StatResult is the outcome of one probe.
//
// Ret and Errno mirror the syscall's return register. Exactly one of Stat
// and Statx is filled on success.
type StatResult struct {
	Syscall string     `json:"syscall"`
	Path    string     `json:"path"`
	Ret     int64      `json:"ret"`
	Errno   string     `json:"errno,omitempty"`
	Stat    *StatView  `json:"stat,omitempty"`
	Statx   *StatxView `json:"statx,omitempty"`
}

// Probe handles GET /stat - run a stat syscall against a path.
//
// Query parameters:
//   - path: the path to probe (required; relative paths resolve from /)
//   - nofollow: any value sets AT_SYMLINK_NOFOLLOW
//   - statx: any value dispatches statx instead of newfstatat
//
// A failing syscall is still a successful probe: the errno travels in the
// result payload, not in the HTTP status.
func (h *StatHandler) Probe(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		InternalServerError(w, "machine not initialized")
		return
	}

	query := r.URL.Query()
	path := query.Get("path")
	if path == "" {
		BadRequest(w, "path query parameter is required")
		return
	}

	t, err := h.machine.CreateTask(r.Context())
	if err != nil {
		InternalServerError(w, "failed to create probe task")
		return
	}
	defer func() { _ = h.machine.ReleaseTask(r.Context(), t) }()

	if err := t.Memory().WriteBytes(probePathAddr, append([]byte(path), 0)); err != nil {
		BadRequest(w, "path does not fit in probe memory")
		return
	}

	var flags int32
	if query.Has("nofollow") {
		flags |= abi.AT_SYMLINK_NOFOLLOW
	}
	cwd := int64(abi.AT_FDCWD)
	dirfd := uint64(cwd)

	call := linux.Invocation{
		Number: abi.SysNewfstatat,
		Args:   [6]uint64{dirfd, probePathAddr, probeBufAddr, uint64(uint32(flags))},
	}
	if query.Has("statx") {
		call = linux.Invocation{
			Number: abi.SysStatx,
			Args:   [6]uint64{dirfd, probePathAddr, uint64(uint32(flags)), abi.STATX_BASIC_STATS, probeBufAddr},
		}
	}

	res, err := h.machine.Dispatch(r.Context(), t, call)
	if err != nil {
		InternalServerError(w, "syscall interrupted")
		return
	}

	result := StatResult{
		Syscall: res.Name,
		Path:    path,
		Ret:     res.Value,
	}

	if res.Errno != 0 {
		result.Errno = res.Errno.Name()
		writeJSON(w, http.StatusOK, okResponse(result))
		return
	}

	if call.Number == abi.SysStatx {
		view, err := readStatxView(t.Memory())
		if err != nil {
			InternalServerError(w, err.Error())
			return
		}
		result.Statx = view
	} else {
		view, err := readStatView(t.Memory())
		if err != nil {
			InternalServerError(w, err.Error())
			return
		}
		result.Stat = view
	}

	writeJSON(w, http.StatusOK, okResponse(result))
}

func readStatView(mem usermem.Memory) (*StatView, error) {
	buf := make([]byte, abi.StatSize)
	if err := mem.ReadBytes(probeBufAddr, buf); err != nil {
		return nil, fmt.Errorf("failed to read stat buffer")
	}
	st, err := abi.DecodeStat(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stat buffer")
	}

	return &StatView{
		Dev:     st.Dev,
		Ino:     st.Ino,
		Mode:    fmt.Sprintf("%#o", st.Mode),
		Nlink:   st.Nlink,
		UID:     st.UID,
		GID:     st.GID,
		Size:    st.Size,
		Blksize: st.Blksize,
		Blocks:  st.Blocks,
		Atime:   formatUnix(st.Atime, st.AtimeNsec),
		Mtime:   formatUnix(st.Mtime, st.MtimeNsec),
		Ctime:   formatUnix(st.Ctime, st.CtimeNsec),
	}, nil
}

func readStatxView(mem usermem.Memory) (*StatxView, error) {
	buf := make([]byte, abi.StatxSize)
	if err := mem.ReadBytes(probeBufAddr, buf); err != nil {
		return nil, fmt.Errorf("failed to read statx buffer")
	}
	st, err := abi.DecodeStatx(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode statx buffer")
	}

	return &StatxView{
		Mask:      st.Mask,
		Mode:      fmt.Sprintf("%#o", st.Mode),
		Nlink:     st.Nlink,
		UID:       st.UID,
		GID:       st.GID,
		Ino:       st.Ino,
		Size:      st.Size,
		Blocks:    st.Blocks,
		Blksize:   st.Blksize,
		Atime:     formatUnix(st.Atime.Sec, int64(st.Atime.Nsec)),
		Btime:     formatUnix(st.Btime.Sec, int64(st.Btime.Nsec)),
		Ctime:     formatUnix(st.Ctime.Sec, int64(st.Ctime.Nsec)),
		Mtime:     formatUnix(st.Mtime.Sec, int64(st.Mtime.Nsec)),
		DevMajor:  st.DevMajor,
		DevMinor:  st.DevMinor,
		RdevMajor: st.RdevMajor,
		RdevMinor: st.RdevMinor,
	}, nil
}

func formatUnix(sec, nsec int64) string {
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)
}
