package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ancestra.org/internal/auth"
	"ancestra.org/internal/person"
)

// handlePeopleCollection lists person records. The slice is passed through
// the privacy filter for the caller's role before it is written; the store
// result never reaches the response directly.
func (a *API) handlePeopleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	role, ok := auth.RoleFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "missing bearer token")
		return
	}

	records, err := a.people.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "record store error")
		return
	}
	writeJSON(w, http.StatusOK, person.Filter(role, records))
}

// handlePersonResource fetches a single record by handle. A private record
// requested by an under-privileged role is indistinguishable from an absent
// one: both are 404.
func (a *API) handlePersonResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	handle := strings.TrimPrefix(r.URL.Path, "/api/people/")
	if handle == "" || strings.Contains(handle, "/") {
		writeError(w, r, http.StatusNotFound, "person not found")
		return
	}

	role, ok := auth.RoleFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "missing bearer token")
		return
	}

	rec, err := a.people.Get(r.Context(), handle)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "person not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "record store error")
		return
	}
	if !person.Visible(role, rec) {
		writeError(w, r, http.StatusNotFound, "person not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
