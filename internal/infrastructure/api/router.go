package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
// nil use cases leave their routes unregistered.
type RouterConfig struct {
	Profile        *application.ProfileUseCase
	Sources        *application.ManageSourcesUseCase
	DetectTrends   *application.DetectTrendsUseCase
	ListTrends     *application.ListTrendsUseCase
	AnalyzeContent *application.AnalyzeContentUseCase
	GenerateDrafts *application.GenerateDraftsUseCase
	Drafts         *application.ManageDraftsUseCase
	Images         *application.GenerateImageUseCase
	StyleSamples   *application.StyleSamplesUseCase
	Subscriptions  *application.SubscriptionsUseCase
	Search         *application.SearchContentUseCase

	Stream       StreamHub
	AllowOrigins []string

	Validator    TokenValidator
	HealthChecks map[string]HealthChecker
	Logger       *logging.Logger
	Metrics      *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// this is the single route table of the service.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.HealthChecks)

	v1 := e.Group("/api/v1")
	v1.Use(AuthMiddleware(AuthConfig{
		Validator:       config.Validator,
		QueryTokenPaths: []string{streamRoute},
	}))

	registered := []string{}

	if config.Profile != nil {
		NewProfileHandler(config.Profile).RegisterRoutes(v1)
		registered = append(registered, "profile")
	}
	if config.Sources != nil {
		NewSourceHandler(config.Sources).RegisterRoutes(v1)
		registered = append(registered, "sources")
	}
	if config.ListTrends != nil || config.DetectTrends != nil || config.AnalyzeContent != nil {
		NewTrendHandler(config.DetectTrends, config.ListTrends, config.AnalyzeContent).RegisterRoutes(v1)
		registered = append(registered, "trends")
	}
	if config.Stream != nil {
		NewStreamHandler(config.Stream, config.AllowOrigins).RegisterRoutes(v1)
		registered = append(registered, "stream")
	}
	if config.Drafts != nil {
		NewDraftHandler(config.GenerateDrafts, config.Drafts, config.Images).RegisterRoutes(v1)
		registered = append(registered, "drafts")
	}
	if config.StyleSamples != nil {
		NewStyleSampleHandler(config.StyleSamples).RegisterRoutes(v1)
		registered = append(registered, "style_samples")
	}
	if config.Subscriptions != nil {
		NewSubscriptionHandler(config.Subscriptions).RegisterRoutes(v1)
		registered = append(registered, "subscriptions")
	}
	if config.Search != nil {
		NewContentHandler(config.Search).RegisterRoutes(v1)
		registered = append(registered, "content")
	}

	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", config.Metrics != nil,
		"api_prefix", "/api/v1",
		"handlers", registered,
	)
}
