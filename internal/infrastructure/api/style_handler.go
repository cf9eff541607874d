package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
)

// StyleSampleHandler handles writing style sample endpoints.
type StyleSampleHandler struct {
	useCase *application.StyleSamplesUseCase
}

// NewStyleSampleHandler creates a new StyleSampleHandler.
func NewStyleSampleHandler(useCase *application.StyleSamplesUseCase) *StyleSampleHandler {
	return &StyleSampleHandler{useCase: useCase}
}

// RegisterRoutes registers style sample routes on the given group.
func (h *StyleSampleHandler) RegisterRoutes(g *echo.Group) {
	samples := g.Group("/style-samples")
	samples.GET("", h.List)
	samples.POST("", h.Add)
	samples.DELETE("/:id", h.Delete)
}

type addStyleSamplesRequest struct {
	Texts []string `json:"texts"`
}

type styleSampleResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	HasVector bool      `json:"has_vector"`
	CreatedAt time.Time `json:"created_at"`
}

type listStyleSamplesResponse struct {
	Samples []styleSampleResponse `json:"samples"`
	Count   int                   `json:"count"`
}

func toStyleSampleList(samples []application.StyleSampleOutput) listStyleSamplesResponse {
	resp := listStyleSamplesResponse{
		Samples: make([]styleSampleResponse, 0, len(samples)),
		Count:   len(samples),
	}
	for _, s := range samples {
		resp.Samples = append(resp.Samples, styleSampleResponse{
			ID:        s.ID,
			Content:   s.Content,
			HasVector: s.HasVector,
			CreatedAt: s.CreatedAt,
		})
	}
	return resp
}

// Add embeds and stores samples.
// POST /api/v1/style-samples
func (h *StyleSampleHandler) Add(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req addStyleSamplesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	samples, err := h.useCase.Add(c.Request().Context(), userID, req.Texts)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toStyleSampleList(samples))
}

// List returns the user's samples.
// GET /api/v1/style-samples?limit=50&offset=0
func (h *StyleSampleHandler) List(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, err := optionalInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := optionalInt(c, "offset")
	if err != nil {
		return err
	}

	samples, err := h.useCase.List(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toStyleSampleList(samples))
}

// Delete removes a sample.
// DELETE /api/v1/style-samples/:id
func (h *StyleSampleHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.useCase.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
