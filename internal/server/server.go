package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/auth"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/chat"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/config"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

// accountStore is the subset of the user repository the account handlers need.
type accountStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) error
}

// pinger is a minimal interface for the readiness database check.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	coordinator *chat.Coordinator
	accounts    accountStore
	tokens      *auth.TokenService
	db          pinger
	clock       clockwork.Clock
	validate    *validator.Validate
	limits      *ConnLimiter
	startTime   time.Time
}

type echoValidator struct {
	validate *validator.Validate
}

func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}
	return nil
}

func NewServer(cfg *config.Config, coordinator *chat.Coordinator, accounts accountStore, tokens *auth.TokenService, db pinger, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	validate := validator.New()
	e.Validator = &echoValidator{validate: validate}

	srv := &Server{
		echo:        e,
		config:      cfg,
		coordinator: coordinator,
		accounts:    accounts,
		tokens:      tokens,
		db:          db,
		clock:       clock,
		validate:    validate,
		limits:      NewConnLimiter(maxConcurrentSockets, socketsPerSecond, socketBurst),
		startTime:   clock.Now(),
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

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}
