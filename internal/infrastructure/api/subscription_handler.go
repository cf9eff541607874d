package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
)

// SubscriptionHandler handles webhook subscription HTTP endpoints.
type SubscriptionHandler struct {
	useCase *application.SubscriptionsUseCase
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(useCase *application.SubscriptionsUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{useCase: useCase}
}

// RegisterRoutes registers subscription routes on the given group.
// all routes require authentication.
func (h *SubscriptionHandler) RegisterRoutes(g *echo.Group) {
	subs := g.Group("/subscriptions")
	subs.POST("", h.Create)
	subs.GET("", h.List)
	subs.DELETE("/:id", h.Delete)
}

// createSubscriptionRequest is the request body for creating a subscription.
type createSubscriptionRequest struct {
	// TargetURL is the webhook endpoint that will receive spike notifications.
	TargetURL string `json:"target_url"`
	// Secret is used for HMAC-SHA256 signature verification.
	Secret string `json:"secret"`
}

// subscriptionResponse is the API representation of a webhook subscription.
type subscriptionResponse struct {
	ID        string    `json:"id"`
	TargetURL string    `json:"target_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listSubscriptionsResponse struct {
	Subscriptions []subscriptionResponse `json:"subscriptions"`
	Count         int                    `json:"count"`
}

func toSubscriptionResponse(s application.SubscriptionOutput) subscriptionResponse {
	return subscriptionResponse{
		ID:        s.ID,
		TargetURL: s.TargetURL,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Create subscribes a url to trend spikes of the user.
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Create(c echo.Context) error {
	// user id comes from the token, never the body
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TargetURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target_url is required")
	}
	if req.Secret == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "secret is required")
	}

	out, err := h.useCase.Create(c.Request().Context(), userID, req.TargetURL, req.Secret)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toSubscriptionResponse(*out))
}

// List returns all subscriptions for the authenticated user.
// GET /api/v1/subscriptions
func (h *SubscriptionHandler) List(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	subs, err := h.useCase.List(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := listSubscriptionsResponse{
		Subscriptions: make([]subscriptionResponse, 0, len(subs)),
		Count:         len(subs),
	}
	for _, s := range subs {
		resp.Subscriptions = append(resp.Subscriptions, toSubscriptionResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete removes a subscription. foreign subscriptions are reported as
// not found so ids of other users don't leak.
// DELETE /api/v1/subscriptions/:id
func (h *SubscriptionHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.useCase.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
