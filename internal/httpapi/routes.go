package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/mlbb-draft/internal/lobby"
	"github.com/DoyleJ11/mlbb-draft/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type RouteConfig struct {
	AllowedOrigins []string
	WS             ws.Options
}

func SetupRoutes(l *lobby.Lobby, cfg RouteConfig, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	r.Use(c.Handler)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/state", GetState(l, log))
	r.Get("/ws", ws.Handler(l, cfg.WS, log))
	return r
}
