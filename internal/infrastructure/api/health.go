package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

const serviceName = "creatorpulse"

// HealthChecker is implemented by dependencies that can report readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components,omitempty"`
}

// RegisterHealthRoutes registers health check endpoints.
// these are public and don't require authentication.
// nil checkers (disabled integrations) are ignored.
func RegisterHealthRoutes(e *echo.Echo, checks map[string]HealthChecker) {
	e.GET("/health", healthHandler)
	e.GET("/ready", readyHandler(checks))
}

// healthHandler returns the basic health status.
// used for liveness probes.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
	})
}

// readyHandler checks every dependency, 503 when any of them fails.
func readyHandler(checks map[string]HealthChecker) echo.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, check := range checks {
		if check != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:     "ready",
			Service:    serviceName,
			Components: make(map[string]string, len(names)),
		}
		code := http.StatusOK

		for _, name := range names {
			if err := checks[name].HealthCheck(ctx); err != nil {
				resp.Components[name] = "unavailable"
				resp.Status = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}

		return c.JSON(code, resp)
	}
}
