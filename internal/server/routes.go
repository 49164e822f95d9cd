package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Service-to-service API (bearer token)
	api := s.echo.Group("/api", s.requireAuth)
	api.POST("/respect/awards", s.handleAward)
	api.POST("/respect/penalties", s.handlePenalize)
	api.POST("/respect/reactions", s.handleReaction)
	api.POST("/respect/boosts/editors-pick", s.handleEditorsPickBoost)
	api.POST("/respect/milestones", s.handleCommunityMilestone)
	api.GET("/respect/users/:id", s.handleGetUserRespect)
	api.GET("/respect/users/:id/events", s.handleListEvents)
	api.GET("/respect/leaderboard", s.handleLeaderboard)
	api.POST("/respect/users/:id", s.handleProvisionUser)

	// Operational endpoints (bearer token)
	admin := s.echo.Group("/admin", s.requireAuth)
	admin.POST("/decay", s.handleDecay)
}
