package handlers

import (
	"net/http"
)

// MountsHandler serves the live mount table.
type MountsHandler struct {
	machine Machine
}

// NewMountsHandler creates a new mounts handler.
func NewMountsHandler(machine Machine) *MountsHandler {
	return &MountsHandler{machine: machine}
}

// List handles GET /mounts - the mount table.
//
// Returns every mount point with its backend type, in mount order. The
// answer mirrors what the resolver consults for each path lookup, so it
// reflects live state, not the boot configuration.
func (h *MountsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		InternalServerError(w, "machine not initialized")
		return
	}

	writeJSON(w, http.StatusOK, okResponse(map[string]interface{}{
		"mounts": h.machine.Mounts(),
	}))
}
