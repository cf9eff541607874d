package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordContentFetched(3)
	m.RecordContentFetched(2)
	m.RecordDraftsGenerated("twitter", 4)
	m.RecordUpstreamError("youtube")
	m.RecordWebhookDelivery("success")
	m.SetBufferSize(7)
	m.RecordTrendDetection(0.5, "success")

	assert.Equal(t, 5.0, testutil.ToFloat64(m.ContentFetchedTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DraftsGeneratedTotal.WithLabelValues("twitter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrorsTotal.WithLabelValues("youtube")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookDeliveriesTotal.WithLabelValues("success")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.ArchiveBufferSize))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TrendDetectionDuration))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(Middleware(m))
	e.GET("/api/v1/drafts/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+id, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	// one series for the pattern, not one per id
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMiddleware_LabelsErrorStatus(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(Middleware(m))
	e.GET("/api/v1/trends", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/trends", nil))

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	statuses := map[string]string{}
	for _, f := range families {
		if f.GetName() != "http_request_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			statuses[labels["path"]] = labels["status"]
		}
	}
	assert.Equal(t, map[string]string{"/api/v1/trends": "400"}, statuses)
}
