package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/animaparty/internal/profile"
	"github.com/playperu/animaparty/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type hostRequest struct {
	ID      string `path:"id"`
	HostKey string `header:"X-Host-Key"`
}

type hostChooseRequest struct {
	ChooseRequest
	ID      string `path:"id"`
	HostKey string `header:"X-Host-Key"`
}

type pressPathRequest struct {
	PressRequest
	ID string `path:"id"`
}

type controllerRequest struct {
	ID     string `path:"id"`
	Player int    `query:"player"`
}

type leaderboardRequest struct {
	Limit int `query:"limit"`
}

type profileRequest struct {
	Name string `path:"name"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "AnimaParty API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session server for AnimaParty minigame parties.")

	add := func(method, path, summary, description string, setup func(oc openapi.OperationContext)) {
		oc, _ := r.NewOperationContext(method, path)
		oc.SetSummary(summary)
		oc.SetDescription(description)
		setup(oc)
		_ = r.AddOperation(oc)
	}

	add(http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.", func(oc openapi.OperationContext) {
		oc.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	})

	add(http.MethodPost, "/api/sessions", "Create session", "Creates and starts a session. The host key authorizes host-only commands.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(CreateSessionRequest{})
		oc.AddRespStructure(CreateSessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	})

	add(http.MethodGet, "/api/sessions/{id}", "Get session", "Returns a snapshot of a running or recently ended session.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(session.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodPost, "/api/sessions/{id}/press", "Press", "Queues a button press for the next tick.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(pressPathRequest{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusAccepted))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodPost, "/api/sessions/{id}/choose", "Choose minigame", "Picks the next minigame when the session selects by choice. Host only.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(hostChooseRequest{})
		oc.AddRespStructure(session.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	})

	add(http.MethodPost, "/api/sessions/{id}/continue", "Continue", "Skips the rest of the round results. Host only.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(hostRequest{})
		oc.AddRespStructure(session.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	})

	add(http.MethodDelete, "/api/sessions/{id}", "End session", "Force-ends the session. The round in progress is not scored. Host only.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(hostRequest{})
		oc.AddRespStructure(session.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	})

	add(http.MethodGet, "/api/sessions/{id}/events", "SSE event stream", "Server-Sent Events stream of round and session events.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
			openapi.WithContentType("text/event-stream"))
	})

	add(http.MethodGet, "/api/sessions/{id}/history", "Session history", "Returns a finished session with per-round results.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(sessionPath{})
		oc.AddRespStructure(SessionRecord{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	})

	add(http.MethodGet, "/api/leaderboard", "Leaderboard", "Lifetime player statistics ordered by total points.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(leaderboardRequest{})
		oc.AddRespStructure([]profile.Profile{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	})

	add(http.MethodGet, "/api/profiles/{name}", "Player profile", "Lifetime statistics for one player name, matched case-insensitively.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(profileRequest{})
		oc.AddRespStructure(profile.Profile{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	})

	add(http.MethodGet, "/ws/sessions/{id}", "Controller websocket", "Upgrades to a websocket. Send {\"type\":\"press\"}; receive session events.", func(oc openapi.OperationContext) {
		oc.AddReqStructure(controllerRequest{})
		oc.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
			openapi.WithContentType("application/json"))
	})

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
