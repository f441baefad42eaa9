package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scythe504/sketchguess-backend/internal/game"
	"github.com/scythe504/sketchguess-backend/internal/websocket"
)

type Server struct {
	port          int
	allowedOrigin string

	registry *game.Registry
	hub      *websocket.Hub
	validate *validator.Validate
	log      *slog.Logger
}

func New(port int, allowedOrigin string, registry *game.Registry, hub *websocket.Hub, log *slog.Logger) *Server {
	return &Server{
		port:          port,
		allowedOrigin: allowedOrigin,
		registry:      registry,
		hub:           hub,
		validate:      validator.New(),
		log:           log,
	}
}

// HTTPServer wraps the routes in an http.Server with the usual timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
