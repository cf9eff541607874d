package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
)

// SourceHandler handles content source HTTP endpoints.
type SourceHandler struct {
	useCase *application.ManageSourcesUseCase
}

// NewSourceHandler creates a new SourceHandler.
func NewSourceHandler(useCase *application.ManageSourcesUseCase) *SourceHandler {
	return &SourceHandler{useCase: useCase}
}

// RegisterRoutes registers source routes on the given group.
func (h *SourceHandler) RegisterRoutes(g *echo.Group) {
	sources := g.Group("/sources")
	sources.GET("", h.List)
	sources.POST("", h.Create)
	sources.PATCH("/:id", h.SetActive)
	sources.DELETE("/:id", h.Delete)
}

type createSourceRequest struct {
	Type        string `json:"type"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
}

type updateSourceRequest struct {
	IsActive *bool `json:"is_active"`
}

type sourceResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type listSourcesResponse struct {
	Sources []sourceResponse `json:"sources"`
	Count   int              `json:"count"`
}

func toSourceResponse(s application.SourceOutput) sourceResponse {
	return sourceResponse{
		ID:          s.ID,
		Type:        s.Type,
		Handle:      s.Handle,
		DisplayName: s.DisplayName,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Create registers a source.
// POST /api/v1/sources
func (h *SourceHandler) Create(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createSourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type is required")
	}
	if req.Handle == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "handle is required")
	}

	out, err := h.useCase.Create(c.Request().Context(), application.CreateSourceInput{
		UserID:      userID,
		Type:        req.Type,
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, toSourceResponse(*out))
}

// List returns the user's sources.
// GET /api/v1/sources
func (h *SourceHandler) List(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	sources, err := h.useCase.List(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := listSourcesResponse{
		Sources: make([]sourceResponse, 0, len(sources)),
		Count:   len(sources),
	}
	for _, s := range sources {
		resp.Sources = append(resp.Sources, toSourceResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// SetActive toggles a source.
// PATCH /api/v1/sources/:id
func (h *SourceHandler) SetActive(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateSourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "is_active is required")
	}

	out, err := h.useCase.SetActive(c.Request().Context(), userID, c.Param("id"), *req.IsActive)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSourceResponse(*out))
}

// Delete removes a source.
// DELETE /api/v1/sources/:id
func (h *SourceHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.useCase.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
