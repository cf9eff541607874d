package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user's id.
	UserContextKey contextKey = "user_id"

	// accessTokenParam carries the token where headers can't be set (websockets).
	accessTokenParam = "access_token"
)

// TokenValidator validates bearer tokens. implemented by auth.JWTValidator.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	Validator TokenValidator

	// Skipper defines a function to skip auth for certain routes.
	Skipper func(c echo.Context) bool

	// QueryTokenPaths are route patterns that may pass the token as
	// ?access_token= instead of the Authorization header.
	QueryTokenPaths []string
}

// AuthMiddleware validates the bearer token and stores the subject in context.
// every request it does not skip must carry a valid token.
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	queryPaths := make(map[string]bool, len(config.QueryTokenPaths))
	for _, p := range config.QueryTokenPaths {
		queryPaths[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" && queryPaths[c.Path()] {
				token = c.QueryParam(accessTokenParam)
			}

			claims, err := config.Validator.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(string(UserContextKey), claims.UserID())
			return next(c)
		}
	}
}

// GetUserID retrieves the authenticated user's id from context.
// returns empty string if not authenticated.
func GetUserID(c echo.Context) string {
	if val := c.Get(string(UserContextKey)); val != nil {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// requireUser returns the user id or a 401.
func requireUser(c echo.Context) (string, error) {
	id := GetUserID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// PublicRoutesSkipper returns a skipper function that skips auth for public routes.
func PublicRoutesSkipper(publicPaths ...string) func(echo.Context) bool {
	pathSet := make(map[string]bool)
	for _, p := range publicPaths {
		pathSet[p] = true
	}

	return func(c echo.Context) bool {
		return pathSet[c.Path()]
	}
}
