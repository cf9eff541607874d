package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
)

// ProfileHandler handles the creator profile endpoints.
type ProfileHandler struct {
	useCase *application.ProfileUseCase
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(useCase *application.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{useCase: useCase}
}

// RegisterRoutes registers profile routes on the given group.
func (h *ProfileHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/profile", h.Get)
	g.PUT("/profile", h.Update)
}

type profileRequest struct {
	DisplayName     string   `json:"display_name"`
	Niche           string   `json:"niche"`
	Tone            string   `json:"tone"`
	TargetPlatforms []string `json:"target_platforms"`
}

type profileResponse struct {
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	Niche           string    `json:"niche"`
	Tone            string    `json:"tone"`
	TargetPlatforms []string  `json:"target_platforms"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toProfileResponse(p application.ProfileOutput) profileResponse {
	return profileResponse{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Niche:           p.Niche,
		Tone:            p.Tone,
		TargetPlatforms: p.TargetPlatforms,
		UpdatedAt:       p.UpdatedAt,
	}
}

// Get returns the profile, defaults included.
// GET /api/v1/profile
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	out, err := h.useCase.Get(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(*out))
}

// Update replaces the profile.
// PUT /api/v1/profile
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	out, err := h.useCase.Update(c.Request().Context(), application.UpdateProfileInput{
		UserID:          userID,
		DisplayName:     req.DisplayName,
		Niche:           req.Niche,
		Tone:            req.Tone,
		TargetPlatforms: req.TargetPlatforms,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(*out))
}
