package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"ancestra.org/internal/auth"
	"ancestra.org/internal/obs"
	"ancestra.org/internal/person"
	"ancestra.org/internal/task"
)

// ReadyProbe reports whether the service can do useful work (DB reachable).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. Handlers stay thin: decode, call a service, map
// errors onto status codes.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth   *auth.Service
	people person.Store
	tasks  *task.Proxy

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, people person.Store, tasks *task.Proxy) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		auth:         authSvc,
		people:       people,
		tasks:        tasks,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	a.mux.HandleFunc("/api/token", a.handleToken)
	a.mux.HandleFunc("/api/token/refresh", a.handleTokenRefresh)

	a.mux.HandleFunc("/api/people", a.handlePeopleCollection)
	a.mux.HandleFunc("/api/people/", a.handlePersonResource)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskResource)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the default per-IP limiter parameters.
func (a *API) SetRateLimit(burst, perSec int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
}

// SetMaxBodyBytes overrides the request body cap.
func (a *API) SetMaxBodyBytes(n int64) {
	if n > 0 {
		a.maxBodyBytes = n
	}
}

// Handler assembles the middleware chain around the routing mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(CORS(h))
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Health and info handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ancestra-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "ancestra-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
