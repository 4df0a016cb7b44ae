package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("AnimaParty API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.Checks, deps.Sessions))

	r.Post("/api/sessions", handleCreateSession(deps.Sessions))
	r.Get("/api/leaderboard", handleLeaderboard(deps.Profiles))
	r.Get("/api/profiles/{name}", handleProfile(deps.Profiles))

	r.Route("/api/sessions/{id}", func(r chi.Router) {
		// Stored history outlives the running session.
		r.Get("/history", handleHistory(deps.Store))

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(deps.Sessions))
			r.Get("/", handleGetSession())
			r.Post("/press", handlePress())
			r.Get("/events", handleEvents(deps.Broker))

			r.Group(func(r chi.Router) {
				r.Use(hostOnly)
				r.Post("/choose", handleChoose())
				r.Post("/continue", handleContinue())
				r.Delete("/", handleEndSession())
			})
		})
	})

	r.With(sessionMiddleware(deps.Sessions)).Get("/ws/sessions/{id}", handleController(deps.Broker, logger))
}
