package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/api/metrics"
)

const readinessTimeout = 3 * time.Second

// Pinger is anything the readiness probe can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependency is a named readiness check.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves the liveness and readiness probes. Neither probe
// requires authentication.
type HealthHandler struct {
	deps  []Dependency
	debug bool
}

// NewHealthHandler returns a HealthHandler that checks deps in order on
// readiness. Dependency error text is only exposed when debug is set.
func NewHealthHandler(debug bool, deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps, debug: debug}
}

// Liveness reports that the process is serving requests.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health/ [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	metrics.HealthProbesTotal.WithLabelValues("liveness", "ok").Inc()
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness pings every dependency.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready/ [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true

	for _, d := range h.deps {
		if err := d.Pinger.Ping(ctx); err != nil {
			st := dependencyStatus{Status: "unhealthy"}
			if h.debug {
				st.Error = err.Error()
			}
			deps[d.Name] = st
			metrics.DependencyUp.WithLabelValues(d.Name).Set(0)
			healthy = false
			continue
		}
		deps[d.Name] = dependencyStatus{Status: "ok"}
		metrics.DependencyUp.WithLabelValues(d.Name).Set(1)
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	metrics.HealthProbesTotal.WithLabelValues("readiness", status).Inc()

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
