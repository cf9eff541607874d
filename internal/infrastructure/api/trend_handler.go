package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// maxAnalyzeItems bounds ad hoc scoring requests.
const maxAnalyzeItems = 1000

// TrendHandler handles trend detection and listing endpoints.
type TrendHandler struct {
	detect  *application.DetectTrendsUseCase
	list    *application.ListTrendsUseCase
	analyze *application.AnalyzeContentUseCase
}

// NewTrendHandler creates a new TrendHandler. detect may be nil when no
// ingestion is configured, then refresh is not registered.
func NewTrendHandler(
	detect *application.DetectTrendsUseCase,
	list *application.ListTrendsUseCase,
	analyze *application.AnalyzeContentUseCase,
) *TrendHandler {
	return &TrendHandler{detect: detect, list: list, analyze: analyze}
}

// RegisterRoutes registers trend routes on the given group.
func (h *TrendHandler) RegisterRoutes(g *echo.Group) {
	trends := g.Group("/trends")
	if h.list != nil {
		trends.GET("", h.List)
	}
	if h.detect != nil {
		trends.POST("/refresh", h.Refresh)
	}
	if h.analyze != nil {
		trends.POST("/analyze", h.Analyze)
	}
}

type trendMetricsResponse struct {
	EngagementRate   float64 `json:"engagement_rate"`
	VelocityScore    float64 `json:"velocity_score"`
	ReachMultiplier  float64 `json:"reach_multiplier"`
	MentionsCount    int     `json:"mentions_count"`
	Sentiment        float64 `json:"sentiment"`
	TrendingDuration int     `json:"trending_duration"`
}

type trendResponse struct {
	Topic         string               `json:"topic"`
	Summary       string               `json:"summary"`
	MomentumScore float64              `json:"momentum_score"`
	Metrics       trendMetricsResponse `json:"metrics"`
	SourceIDs     []string             `json:"source_ids"`
	ModelVersion  string               `json:"model_version"`
	DetectedAt    time.Time            `json:"detected_at"`
}

type listTrendsResponse struct {
	Trends []trendResponse `json:"trends"`
	Count  int             `json:"count"`
}

type refreshResponse struct {
	SourcesChecked int             `json:"sources_checked"`
	ItemsFetched   int             `json:"items_fetched"`
	Spikes         int             `json:"spikes"`
	DetectedAt     time.Time       `json:"detected_at"`
	Trends         []trendResponse `json:"trends"`
}

type engagementRequest struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// contentItemRequest accepts engagement either nested or flattened.
type contentItemRequest struct {
	SourceID    string             `json:"source_id"`
	SourceType  string             `json:"source_type"`
	Title       string             `json:"title"`
	Text        string             `json:"text"`
	URL         string             `json:"url"`
	PublishedAt time.Time          `json:"published_at"`
	Engagement  *engagementRequest `json:"engagement"`
	Views       int64              `json:"views"`
	Likes       int64              `json:"likes"`
	Shares      int64              `json:"shares"`
	Comments    int64              `json:"comments"`
	Metadata    map[string]string  `json:"metadata"`
	IsActive    *bool              `json:"is_active"`
}

type analyzeRequest struct {
	Content []contentItemRequest `json:"content"`
}

func (r analyzeRequest) inputs() []application.AnalyzeItemInput {
	inputs := make([]application.AnalyzeItemInput, 0, len(r.Content))
	for _, item := range r.Content {
		in := application.AnalyzeItemInput{
			SourceID:    item.SourceID,
			SourceType:  item.SourceType,
			Title:       item.Title,
			Text:        item.Text,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			Views:       item.Views,
			Likes:       item.Likes,
			Shares:      item.Shares,
			Comments:    item.Comments,
			Metadata:    item.Metadata,
			Active:      item.IsActive,
		}
		if e := item.Engagement; e != nil {
			in.Views, in.Likes, in.Shares, in.Comments = e.Views, e.Likes, e.Shares, e.Comments
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// DecodeAnalyzeRequest reads an analyze payload, {"content": [...]}, outside of
// an http request. used by the score command.
func DecodeAnalyzeRequest(r io.Reader) ([]application.AnalyzeItemInput, error) {
	var req analyzeRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid content payload: %v", domain.ErrInvalidInput, err)
	}
	return req.inputs(), nil
}

// WriteTrends writes trends in the same shape the list endpoint returns.
func WriteTrends(w io.Writer, trends []application.TrendOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listTrendsResponse{
		Trends: toTrendResponses(trends),
		Count:  len(trends),
	})
}

func toTrendResponse(t application.TrendOutput) trendResponse {
	return trendResponse{
		Topic:         t.Topic,
		Summary:       t.Summary,
		MomentumScore: t.MomentumScore,
		Metrics: trendMetricsResponse{
			EngagementRate:   t.EngagementRate,
			VelocityScore:    t.VelocityScore,
			ReachMultiplier:  t.ReachMultiplier,
			MentionsCount:    t.MentionsCount,
			Sentiment:        t.Sentiment,
			TrendingDuration: t.TrendingDuration,
		},
		SourceIDs:    t.SourceIDs,
		ModelVersion: t.ModelVersion,
		DetectedAt:   t.DetectedAt,
	}
}

func toTrendResponses(trends []application.TrendOutput) []trendResponse {
	out := make([]trendResponse, 0, len(trends))
	for _, t := range trends {
		out = append(out, toTrendResponse(t))
	}
	return out
}

// List returns the latest trends ordered by momentum.
// GET /api/v1/trends?limit=10
func (h *TrendHandler) List(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	trends, err := h.list.Execute(c.Request().Context(), userID, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, listTrendsResponse{
		Trends: toTrendResponses(trends),
		Count:  len(trends),
	})
}

// Refresh runs trend detection for the user now.
// POST /api/v1/trends/refresh
func (h *TrendHandler) Refresh(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	out, err := h.detect.Execute(c.Request().Context(), application.DetectTrendsInput{UserID: userID})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, refreshResponse{
		SourcesChecked: out.SourcesChecked,
		ItemsFetched:   out.ItemsFetched,
		Spikes:         out.Spikes,
		DetectedAt:     out.DetectedAt,
		Trends:         toTrendResponses(out.Trends),
	})
}

// Analyze scores caller-provided content with the heuristic only.
// POST /api/v1/trends/analyze
func (h *TrendHandler) Analyze(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Content) > maxAnalyzeItems {
		return echo.NewHTTPError(http.StatusBadRequest, "too many content items, max "+strconv.Itoa(maxAnalyzeItems))
	}

	inputs := req.inputs()

	trends, err := h.analyze.Execute(c.Request().Context(), inputs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, listTrendsResponse{
		Trends: toTrendResponses(trends),
		Count:  len(trends),
	})
}
