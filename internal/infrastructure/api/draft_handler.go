package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
)

// DraftHandler handles draft generation and review endpoints.
type DraftHandler struct {
	generate *application.GenerateDraftsUseCase
	manage   *application.ManageDraftsUseCase
	images   *application.GenerateImageUseCase
}

// NewDraftHandler creates a new DraftHandler. generate and images may be
// nil when no llm is configured.
func NewDraftHandler(
	generate *application.GenerateDraftsUseCase,
	manage *application.ManageDraftsUseCase,
	images *application.GenerateImageUseCase,
) *DraftHandler {
	return &DraftHandler{generate: generate, manage: manage, images: images}
}

// RegisterRoutes registers draft and image routes on the given group.
func (h *DraftHandler) RegisterRoutes(g *echo.Group) {
	drafts := g.Group("/drafts")
	drafts.GET("", h.List)
	drafts.GET("/:id", h.Get)
	drafts.PUT("/:id", h.Update)
	drafts.DELETE("/:id", h.Delete)
	drafts.POST("/:id/save", h.Save)

	if h.generate != nil {
		drafts.POST("/generate", h.Generate)
	}
	if h.images != nil {
		drafts.POST("/:id/image", h.GenerateDraftImage)
		g.POST("/images", h.GenerateImage)
	}
}

type generateDraftsRequest struct {
	Platforms []string `json:"platforms"`
	Topics    []string `json:"topics"`
}

type updateDraftRequest struct {
	Content string `json:"content"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	URL string `json:"url"`
}

type draftResponse struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Hashtags  []string  `json:"hashtags"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listDraftsResponse struct {
	Drafts []draftResponse `json:"drafts"`
	Count  int             `json:"count"`
}

func toDraftResponse(d application.DraftOutput) draftResponse {
	return draftResponse{
		ID:        d.ID,
		Platform:  d.Platform,
		Topic:     d.Topic,
		Content:   d.Content,
		Hashtags:  d.Hashtags,
		ImageURL:  d.ImageURL,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDraftList(drafts []application.DraftOutput) listDraftsResponse {
	resp := listDraftsResponse{
		Drafts: make([]draftResponse, 0, len(drafts)),
		Count:  len(drafts),
	}
	for _, d := range drafts {
		resp.Drafts = append(resp.Drafts, toDraftResponse(d))
	}
	return resp
}

// Generate writes drafts for the requested platforms and topics.
// POST /api/v1/drafts/generate
func (h *DraftHandler) Generate(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req generateDraftsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	drafts, err := h.generate.Execute(c.Request().Context(), application.GenerateDraftsInput{
		UserID:    userID,
		Platforms: req.Platforms,
		Topics:    req.Topics,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toDraftList(drafts))
}

// List returns the user's drafts.
// GET /api/v1/drafts?status=saved&limit=50&offset=0
func (h *DraftHandler) List(c echo.Context) error {
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

	drafts, err := h.manage.List(c.Request().Context(), application.ListDraftsInput{
		UserID: userID,
		Status: c.QueryParam("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDraftList(drafts))
}

// Get returns one draft.
// GET /api/v1/drafts/:id
func (h *DraftHandler) Get(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	out, err := h.manage.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDraftResponse(*out))
}

// Update edits the draft content.
// PUT /api/v1/drafts/:id
func (h *DraftHandler) Update(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updateDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	out, err := h.manage.Update(c.Request().Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDraftResponse(*out))
}

// Save marks the draft as saved.
// POST /api/v1/drafts/:id/save
func (h *DraftHandler) Save(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	out, err := h.manage.Save(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDraftResponse(*out))
}

// Delete removes the draft.
// DELETE /api/v1/drafts/:id
func (h *DraftHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.manage.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GenerateDraftImage creates an image for the draft and stores its url.
// POST /api/v1/drafts/:id/image
func (h *DraftHandler) GenerateDraftImage(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	out, err := h.images.ForDraft(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toDraftResponse(*out))
}

// GenerateImage creates an image for a free-form prompt.
// POST /api/v1/images
func (h *DraftHandler) GenerateImage(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	url, err := h.images.ForPrompt(c.Request().Context(), req.Prompt)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, imageResponse{URL: url})
}

// optionalInt parses a non-negative query parameter, 0 when absent.
func optionalInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
	}
	return v, nil
}
