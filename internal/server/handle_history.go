package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/animaparty/internal/profile"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// handleHistory serves a finished session from the store. Running sessions
// are not stored yet and report 404.
func handleHistory(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.SessionHistory(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session history not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleLeaderboard(profiles ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboardLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxLeaderboardLimit {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		board, err := profiles.Leaderboard(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "leaderboard unavailable")
			return
		}
		if board == nil {
			board = []profile.Profile{}
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func handleProfile(profiles ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := profiles.Get(r.Context(), chi.URLParam(r, "name"))
		if errors.Is(err, profile.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "profiles unavailable")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
