package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/auth"
)

// toHTTPError maps an error from the layers below to a status code.
// 5xx errors keep the cause as Internal and expose a generic message.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "resource already exists")
	case isAuthError(err):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, application.ErrEmbeddingsUnavailable),
		errors.Is(err, application.ErrImagesUnavailable),
		errors.Is(err, application.ErrSearchUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

func isAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrInvalidSignature) ||
		errors.Is(err, auth.ErrInvalidClaims)
}
