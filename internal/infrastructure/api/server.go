package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	AllowOrigins    []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// BodyLimit caps request bodies, e.g. "2M"; analyze payloads are the largest
	BodyLimit string
	// RequestsPerSecond per client ip, 0 disables limiting
	RequestsPerSecond float64
	Burst             int
}

// DefaultServerConfig returns sensible defaults.
// draft generation calls an llm per platform, hence the long write timeout.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              ":8080",
		AllowOrigins:      []string{"*"},
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		BodyLimit:         "2M",
		RequestsPerSecond: 10,
		Burst:             30,
	}
}

// Server wraps the Echo instance and provides lifecycle management.
type Server struct {
	echo   *echo.Echo
	config ServerConfig
	logger *logging.Logger
}

// NewServer creates the echo instance with the base middleware chain:
// recover, request id, logging, cors, body limit and rate limiting.
func NewServer(config ServerConfig, logger *logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	origins := config.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if config.BodyLimit != "" {
		e.Use(middleware.BodyLimit(config.BodyLimit))
	}
	if config.RequestsPerSecond > 0 {
		e.Use(rateLimiter(config))
	}

	e.HTTPErrorHandler = customErrorHandler(logger)

	return &Server{
		echo:   e,
		config: config,
		logger: logger.WithComponent("http_server"),
	}
}

// rateLimiter throttles each client ip. probes and scrapes are exempt.
func rateLimiter(config ServerConfig) echo.MiddlewareFunc {
	burst := config.Burst
	if burst <= 0 {
		burst = int(config.RequestsPerSecond)
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/health", "/ready", "/metrics":
				return true
			}
			return false
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(config.RequestsPerSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// Echo returns the underlying Echo instance for route registration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start listens until Shutdown. websocket connections manage their own
// deadlines once hijacked.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"port", s.config.Port,
		"read_timeout", s.config.ReadTimeout.String(),
		"write_timeout", s.config.WriteTimeout.String(),
		"rate_limit_rps", s.config.RequestsPerSecond,
	)

	server := &http.Server{
		Addr:              s.config.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.echo.Shutdown(ctx)
}

// requestLogger creates a middleware that logs requests using our structured logger.
func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	l := logger.WithComponent("http")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogLatency:  true,
		LogMethod:   true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", c.Path(),
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if uid := GetUserID(c); uid != "" {
				attrs = append(attrs, "user_id", uid)
			}
			if v.Error != nil {
				l.Warn("request error", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			l.Info("request", attrs...)
			return nil
		},
	})
}

// customErrorHandler provides consistent error responses.
// errors that are not echo errors are mapped by their domain sentinel.
func customErrorHandler(logger *logging.Logger) echo.HTTPErrorHandler {
	l := logger.WithComponent("http_error")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := toHTTPError(err)
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
		}

		code := he.Code
		message := he.Message

		// upstream details are logged, never returned
		if code >= 500 {
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			l.Error("server error",
				"status", code,
				"path", c.Path(),
				"error", cause.Error(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, ErrorResponse{
				Error:   http.StatusText(code),
				Message: message,
			})
		}
		if err != nil {
			l.Error("failed to send error response", "error", err.Error())
		}
	}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message any    `json:"message"`
}
