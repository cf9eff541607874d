package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	streamPath  = "/api/v1/trends/stream"
	metricsPath = "/metrics"
)

// Middleware records request count and latency per route pattern.
// the websocket stream is excluded, its duration is the connection lifetime.
// so is the scrape endpoint itself.
func Middleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Path() {
			case streamPath, metricsPath:
				return next(c)
			}

			start := time.Now()
			err := next(c)

			// the error handler has not run yet, so an error's status is
			// taken from the error itself
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			m.RecordHTTPRequest(c.Request().Method, routeLabel(c), strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}

// routeLabel is the matched route pattern, e.g. /api/v1/drafts/:id, so ids
// never become label values. requests that matched no route share one label.
func routeLabel(c echo.Context) string {
	if path := c.Path(); path != "" && path != "/*" {
		return path
	}
	return "unmatched"
}
