package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a ping function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Sessions int               `json:"sessions"`
}

func handleHealth(logger *slog.Logger, checks map[string]Checker, sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK

		for name, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				resp.Checks[name] = "error"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		if sessions != nil {
			resp.Sessions = sessions.Len()
		}

		writeJSON(w, status, resp)
	}
}
