package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/coffeeaccount/respect-service/internal/config"
	"github.com/coffeeaccount/respect-service/internal/domain"
	apperrors "github.com/coffeeaccount/respect-service/internal/errors"
)

// healthPinger is the minimal dependency contract for readiness checks. Both
// pgxpool.Pool and the redis client wrapper satisfy it.
type healthPinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	respect   domain.RespectService
	db        healthPinger
	cache     healthPinger
	startTime time.Time
}

// NewServer wires the HTTP surface around the respect service. cache may be
// nil when the service runs without Redis.
func NewServer(cfg *config.Config, respect domain.RespectService, db healthPinger, cache healthPinger, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(correlationMiddleware)
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		respect:   respect,
		db:        db,
		cache:     cache,
		startTime: clock.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
