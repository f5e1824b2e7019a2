package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ancestra.org/internal/task"
)

// handleTaskResource reports the state of a background job. Authenticated
// only; any role may query, there are no privacy semantics here.
func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "task not found")
		return
	}

	status, err := a.tasks.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, r, http.StatusBadGateway, "task engine error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
