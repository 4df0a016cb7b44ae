package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyRunner ctxKey = iota

// hostKeyHeader carries the key returned when the session was created.
const hostKeyHeader = "X-Host-Key"

func sessionMiddleware(sessions *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			runner, err := sessions.Get(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyRunner, runner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// hostOnly rejects requests without the session's host key. It must run
// after sessionMiddleware.
func hostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := runnerFrom(r).checkHost(r.Header.Get(hostKeyHeader)); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func runnerFrom(r *http.Request) *Runner {
	return r.Context().Value(ctxKeyRunner).(*Runner)
}
