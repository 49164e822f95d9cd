package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/coffeeaccount/respect-service/internal/config"
	"github.com/coffeeaccount/respect-service/internal/domain"
	apperrors "github.com/coffeeaccount/respect-service/internal/errors"
)

// mockRespectService implements domain.RespectService with overridable
// function fields. Unset fields return zero values.
type mockRespectService struct {
	awardFn          func(ctx context.Context, userID uuid.UUID, source string, rawPoints float64, meta map[string]any) (domain.AwardResult, error)
	penalizeFn       func(ctx context.Context, userID uuid.UUID, source string, points float64, meta map[string]any) (domain.AwardResult, error)
	reactionFn       func(ctx context.Context, reviewAuthorID uuid.UUID, reaction domain.ReactionType, reactorRespect int, reviewID string) (domain.AwardResult, error)
	editorsPickFn    func(ctx context.Context, userID uuid.UUID) (domain.AwardResult, error)
	milestoneFn      func(ctx context.Context, userID uuid.UUID, milestone string) (domain.AwardResult, error)
	getUserRespectFn func(ctx context.Context, userID uuid.UUID) (domain.UserRespect, error)
	listEventsFn     func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RespectEvent, error)
	leaderboardFn    func(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	provisionFn      func(ctx context.Context, userID uuid.UUID) error
	decayFn          func(ctx context.Context, percent float64) (int, error)
}

func (m *mockRespectService) Award(ctx context.Context, userID uuid.UUID, source string, rawPoints float64, meta map[string]any) (domain.AwardResult, error) {
	if m.awardFn != nil {
		return m.awardFn(ctx, userID, source, rawPoints, meta)
	}
	return domain.AwardResult{}, nil
}

func (m *mockRespectService) Penalize(ctx context.Context, userID uuid.UUID, source string, points float64, meta map[string]any) (domain.AwardResult, error) {
	if m.penalizeFn != nil {
		return m.penalizeFn(ctx, userID, source, points, meta)
	}
	return domain.AwardResult{}, nil
}

func (m *mockRespectService) AwardFromReviewReaction(ctx context.Context, reviewAuthorID uuid.UUID, reaction domain.ReactionType, reactorRespect int, reviewID string) (domain.AwardResult, error) {
	if m.reactionFn != nil {
		return m.reactionFn(ctx, reviewAuthorID, reaction, reactorRespect, reviewID)
	}
	return domain.AwardResult{}, nil
}

func (m *mockRespectService) EditorsPickBoost(ctx context.Context, userID uuid.UUID) (domain.AwardResult, error) {
	if m.editorsPickFn != nil {
		return m.editorsPickFn(ctx, userID)
	}
	return domain.AwardResult{}, nil
}

func (m *mockRespectService) CommunityMilestone(ctx context.Context, userID uuid.UUID, milestone string) (domain.AwardResult, error) {
	if m.milestoneFn != nil {
		return m.milestoneFn(ctx, userID, milestone)
	}
	return domain.AwardResult{}, nil
}

func (m *mockRespectService) GetUserRespect(ctx context.Context, userID uuid.UUID) (domain.UserRespect, error) {
	if m.getUserRespectFn != nil {
		return m.getUserRespectFn(ctx, userID)
	}
	return domain.UserRespect{}, nil
}

func (m *mockRespectService) ListEvents(ctx context.Context, userID uuid.UUID, limit int) ([]domain.RespectEvent, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockRespectService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if m.leaderboardFn != nil {
		return m.leaderboardFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRespectService) ProvisionUser(ctx context.Context, userID uuid.UUID) error {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, userID)
	}
	return nil
}

func (m *mockRespectService) ApplyMonthlyDecay(ctx context.Context, percent float64) (int, error) {
	if m.decayFn != nil {
		return m.decayFn(ctx, percent)
	}
	return 0, nil
}

func newTestServer(t *testing.T, respect domain.RespectService, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    &config.Config{Port: "8080", DecayPercent: 0.05, CacheTTL: 30 * time.Second},
		respect:   respect,
		startTime: clockwork.NewRealClock().Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()
	return srv
}

func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}
