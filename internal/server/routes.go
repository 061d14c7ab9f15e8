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

	// Account endpoints
	s.echo.POST("/api/account/register", s.handleRegister)
	s.echo.POST("/api/account/login", s.handleLogin)
	s.echo.GET("/api/account/me", s.handleMe)

	// Chat socket (token checked before upgrade - NO middleware auth)
	s.echo.GET("/chathub", s.handleChatSocket)
}
