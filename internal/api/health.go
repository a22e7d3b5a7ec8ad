package api

import (
	"net/http"
	"time"

	"github.com/vcalderon2009/note-taker/internal/api/respond"
	"github.com/vcalderon2009/note-taker/internal/health"
)

// HealthHandler serves the liveness and dependency health endpoints.
// The gating checker decides the status code; reported checkers only show up
// in the dependency map.
type HealthHandler struct {
	port     int
	checker  *health.ServiceHealthChecker
	reported []health.HealthChecker
}

func NewHealthHandler(port int, checker *health.ServiceHealthChecker, reported ...health.HealthChecker) *HealthHandler {
	return &HealthHandler{port: port, checker: checker, reported: reported}
}

type liveResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Port    int    `json:"port"`
}

type dependencyResponse struct {
	Status       string          `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
	Dependencies map[string]bool `json:"dependencies"`
}

// Live handles GET /health. It never consults dependencies.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, liveResponse{Status: "ok", Service: "api", Port: h.port})
}

// Dependencies handles GET /api/health. It answers 503 while the aggregate
// checker reports unhealthy.
func (h *HealthHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	resp := dependencyResponse{Status: "healthy", Timestamp: time.Now().UTC(), Dependencies: map[string]bool{}}
	code := http.StatusOK
	if h.checker != nil {
		resp.Dependencies = h.checker.Snapshot()
		if !h.checker.IsHealthy() {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	for _, c := range h.reported {
		if c == nil {
			continue
		}
		resp.Dependencies[c.Name()] = c.IsHealthy()
	}
	respond.WriteJSON(w, code, resp)
}
