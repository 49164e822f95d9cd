package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/coffeeaccount/respect-service/internal/domain"
	apperrors "github.com/coffeeaccount/respect-service/internal/errors"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 200

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type awardRequest struct {
	TargetUserID uuid.UUID      `json:"targetUserId"`
	Source       string         `json:"source"`
	Points       float64        `json:"points"`
	Meta         map[string]any `json:"meta"`
}

type reactionRequest struct {
	ReviewAuthorID uuid.UUID `json:"reviewAuthorId"`
	ReactionType   string    `json:"reactionType"`
	ReactorRespect int       `json:"reactorRespect"`
	ReviewID       string    `json:"reviewId"`
}

type boostRequest struct {
	UserID uuid.UUID `json:"userId"`
}

type milestoneRequest struct {
	UserID    uuid.UUID `json:"userId"`
	Milestone string    `json:"milestone"`
}

func (s *Server) handleAward(c echo.Context) error {
	var req awardRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.TargetUserID == uuid.Nil {
		return apperrors.ValidationError("targetUserId is required")
	}

	result, err := s.respect.Award(c.Request().Context(), req.TargetUserID, req.Source, req.Points, req.Meta)
	if err != nil {
		return mapAwardError(err, req.TargetUserID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handlePenalize(c echo.Context) error {
	var req awardRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.TargetUserID == uuid.Nil {
		return apperrors.ValidationError("targetUserId is required")
	}

	result, err := s.respect.Penalize(c.Request().Context(), req.TargetUserID, req.Source, req.Points, req.Meta)
	if err != nil {
		return mapAwardError(err, req.TargetUserID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleReaction(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ReviewAuthorID == uuid.Nil {
		return apperrors.ValidationError("reviewAuthorId is required")
	}
	if req.ReviewID == "" {
		return apperrors.ValidationError("reviewId is required")
	}

	result, err := s.respect.AwardFromReviewReaction(
		c.Request().Context(), req.ReviewAuthorID, domain.ReactionType(req.ReactionType), req.ReactorRespect, req.ReviewID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownReaction) {
			return apperrors.ValidationError("unknown reaction type").WithContext("reaction_type", req.ReactionType)
		}
		return mapAwardError(err, req.ReviewAuthorID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleEditorsPickBoost(c echo.Context) error {
	var req boostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.UserID == uuid.Nil {
		return apperrors.ValidationError("userId is required")
	}

	result, err := s.respect.EditorsPickBoost(c.Request().Context(), req.UserID)
	if err != nil {
		return mapAwardError(err, req.UserID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCommunityMilestone(c echo.Context) error {
	var req milestoneRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.UserID == uuid.Nil {
		return apperrors.ValidationError("userId is required")
	}
	if req.Milestone == "" {
		return apperrors.ValidationError("milestone is required")
	}

	result, err := s.respect.CommunityMilestone(c.Request().Context(), req.UserID, req.Milestone)
	if err != nil {
		return mapAwardError(err, req.UserID)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetUserRespect(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	value, err := s.respect.GetUserRespect(c.Request().Context(), userID)
	if err != nil {
		return apperrors.InternalError("failed to load user respect", err).WithContext("user_id", userID.String())
	}

	if err := c.JSON(http.StatusOK, value); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListEvents(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, defaultEventsLimit, maxEventsLimit)

	events, err := s.respect.ListEvents(c.Request().Context(), userID, limit)
	if err != nil {
		return apperrors.InternalError("failed to list events", err).WithContext("user_id", userID.String())
	}
	if events == nil {
		events = []domain.RespectEvent{}
	}

	if err := c.JSON(http.StatusOK, map[string]any{"events": events}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLeaderboard(c echo.Context) error {
	limit := parseLimit(c, defaultLeaderboardLimit, maxLeaderboardLimit)

	entries, err := s.respect.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return apperrors.InternalError("failed to load leaderboard", err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}

	if err := c.JSON(http.StatusOK, map[string]any{"entries": entries}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleProvisionUser(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := s.respect.ProvisionUser(c.Request().Context(), userID); err != nil {
		return apperrors.InternalError("failed to provision user", err).WithContext("user_id", userID.String())
	}

	if err := c.JSON(http.StatusCreated, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func parseUserID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid user ID").WithContext("id", raw)
	}
	return userID, nil
}

func parseLimit(c echo.Context, fallback, maximum int) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > maximum {
		return maximum
	}
	return limit
}

func mapAwardError(err error, userID uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found").WithContext("user_id", userID.String())
	case errors.Is(err, domain.ErrEmptySource):
		return apperrors.ValidationError("source must not be empty")
	default:
		return apperrors.InternalError("failed to apply respect change", err).WithContext("user_id", userID.String())
	}
}
