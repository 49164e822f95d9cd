package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/coffeeaccount/respect-service/internal/errors"
)

type decayRequest struct {
	// Percent overrides the configured DECAY_PERCENT when set.
	Percent *float64 `json:"percent"`
}

// handleDecay triggers one decay batch synchronously. The cron scheduler is
// the normal path; this exists for operational reruns and backfills.
func (s *Server) handleDecay(c echo.Context) error {
	var req decayRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	percent := s.config.DecayPercent
	if req.Percent != nil {
		percent = *req.Percent
	}
	if percent < 0 || percent > 1 {
		return apperrors.ValidationError("percent must be within [0, 1]").WithContext("percent", percent)
	}

	affected, err := s.respect.ApplyMonthlyDecay(c.Request().Context(), percent)
	if err != nil {
		slog.Error("Manual decay run failed", "error", err, "affected_users", affected)
		return apperrors.InternalError("decay run failed", err).WithContext("affected_users", affected)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"affectedUsers": affected}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
