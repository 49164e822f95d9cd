package server

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coffeeaccount/respect-service/internal/correlation"
	apperrors "github.com/coffeeaccount/respect-service/internal/errors"
)

// correlationMiddleware tags every request with a correlation ID: an inbound
// X-Request-Id is honored, otherwise one is generated. The ID rides the
// request context into slog and is echoed back on the response.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get("X-Request-Id")
		if id == "" {
			id = correlation.NewID()
		}

		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set("X-Request-Id", id)
		return next(c)
	}
}

// requireAuth enforces the shared-secret bearer token on the API and admin
// groups. An empty AUTH_TOKEN disables the check; config.Validate rejects
// that combination in production.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.AuthToken == "" {
			return next(c)
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return apperrors.UnauthorizedError("missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AuthToken)) != 1 {
			return apperrors.UnauthorizedError("invalid bearer token")
		}
		return next(c)
	}
}
