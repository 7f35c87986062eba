package handlers

import (
	"net/http"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the emulator booted and serving mounts?
type HealthHandler struct {
	machine Machine
}

// NewHealthHandler creates a new health handler.
//
// The machine parameter may be nil, in which case the readiness check
// reports unhealthy.
func NewHealthHandler(machine Machine) *HealthHandler {
	return &HealthHandler{machine: machine}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "velin",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the emulator is ready to execute syscalls. This checks:
//   - The machine is initialized
//   - At least one filesystem is mounted
//
// Returns 503 Service Unavailable if the emulator is not ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("machine not initialized"))
		return
	}

	mounts := h.machine.Mounts()
	if len(mounts) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no filesystems mounted"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"mounts": len(mounts),
		"tasks":  len(h.machine.Tasks()),
	}))
}
