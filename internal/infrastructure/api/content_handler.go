package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// ContentHandler exposes search over archived source content.
type ContentHandler struct {
	search *application.SearchContentUseCase
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(search *application.SearchContentUseCase) *ContentHandler {
	return &ContentHandler{search: search}
}

// RegisterRoutes registers content routes on the given group.
func (h *ContentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/content/search", h.Search)
}

type contentHitResponse struct {
	SourceID    string            `json:"source_id"`
	SourceType  string            `json:"source_type"`
	Title       string            `json:"title,omitempty"`
	Text        string            `json:"text"`
	URL         string            `json:"url,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
	Engagement  domain.Engagement `json:"engagement"`
	Score       float64           `json:"score"`
}

type searchResponse struct {
	Query string               `json:"query"`
	Hits  []contentHitResponse `json:"hits"`
	Count int                  `json:"count"`
}

// Search runs a full text query.
// GET /api/v1/content/search?q=generics&limit=20
func (h *ContentHandler) Search(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, err := optionalInt(c, "limit")
	if err != nil {
		return err
	}

	query := c.QueryParam("q")
	hits, err := h.search.Execute(c.Request().Context(), userID, query, limit)
	if err != nil {
		return toHTTPError(err)
	}

	resp := searchResponse{
		Query: query,
		Hits:  make([]contentHitResponse, 0, len(hits)),
		Count: len(hits),
	}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, contentHitResponse{
			SourceID:    hit.SourceID,
			SourceType:  hit.SourceType.String(),
			Title:       hit.Title,
			Text:        hit.Text,
			URL:         hit.URL,
			PublishedAt: hit.PublishedAt,
			Engagement:  hit.Engagement,
			Score:       hit.Score,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
