package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liuyint/policydesk/internal/handler/live"
	sessionHandler "github.com/liuyint/policydesk/internal/handler/session"
	"github.com/liuyint/policydesk/internal/handler/stream"
	middlewarePkg "github.com/liuyint/policydesk/internal/middleware"
	sessionService "github.com/liuyint/policydesk/internal/service/session"
)

// NewRouter wires HTTP routes to the experiment engine.
func NewRouter(sessions *sessionService.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(sessions).RegisterRoutes(api)
		stream.New(sessions).RegisterRoutes(api)
		live.New(sessions).RegisterRoutes(api)
	})

	return r
}
