package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/session"
)

type CreateSessionRequest struct {
	Players     []string `json:"players"`
	TotalRounds int      `json:"totalRounds,omitempty"`
	Selection   string   `json:"selection,omitempty"`
}

type CreateSessionResponse struct {
	ID      string           `json:"id"`
	HostKey string           `json:"hostKey"`
	Session session.Snapshot `json:"session"`
}

type PressRequest struct {
	PlayerID int `json:"playerId"`
}

type ChooseRequest struct {
	Minigame string `json:"minigame"`
}

func handleCreateSession(sessions *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		for i, name := range req.Players {
			req.Players[i] = strings.TrimSpace(name)
		}
		if req.TotalRounds < 0 {
			writeError(w, http.StatusBadRequest, "totalRounds must not be negative")
			return
		}

		runner, hostKey, err := sessions.Create(CreateOptions{
			Players:     req.Players,
			TotalRounds: req.TotalRounds,
			Selection:   req.Selection,
		})
		switch {
		case errors.Is(err, errShuttingDown):
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case errors.Is(err, session.ErrInvalidTiming):
			writeError(w, http.StatusInternalServerError, "session settings are invalid: "+err.Error())
			return
		case errors.Is(err, errTooManyPlayers),
			errors.Is(err, errDuplicateName),
			errors.Is(err, errBadSelection),
			errors.Is(err, session.ErrNotEnoughPlayers),
			errors.Is(err, session.ErrNoRounds),
			errors.Is(err, minigame.ErrNoCompatible):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateSessionResponse{
			ID:      runner.ID,
			HostKey: hostKey,
			Session: runner.Snapshot(),
		})
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, runnerFrom(r).Snapshot())
	}
}

func handlePress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PressRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := runnerFrom(r).Press(req.PlayerID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleChoose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChooseRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		runner := runnerFrom(r)
		err := runner.Choose(req.Minigame)
		switch {
		case errors.Is(err, minigame.ErrUnknownMinigame):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, session.ErrNotSelecting), errors.Is(err, session.ErrChoiceUnsupported):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, runner.Snapshot())
	}
}

func handleContinue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner := runnerFrom(r)
		err := runner.Continue()
		if errors.Is(err, session.ErrNotShowingResult) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, runner.Snapshot())
	}
}

func handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, runnerFrom(r).ForceEnd())
	}
}
