package handler

import (
	"net/http"
)

// Pinger is the slice of the database the health endpoint needs.
type Pinger interface {
	Ping() error
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// HandleHealth answers GET /healthz. Returns 503 when the database is not
// reachable so load balancers stop routing to this instance.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, APIError{
			StatusCode: http.StatusServiceUnavailable,
			Error:      "unavailable",
			Message:    "database is not reachable",
			Success:    false,
		})
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}
