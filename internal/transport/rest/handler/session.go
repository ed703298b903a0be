package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ParikTV/balanza-server/internal/game"
	"github.com/ParikTV/balanza-server/internal/service"
	"github.com/ParikTV/balanza-server/internal/transport/rest/middleware"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	HostName string `json:"hostName"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessionSvc.Create(r.Context(), req.HostName)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	Name string `json:"name"`
}

// Join handles POST /v1/sessions/{code}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessionSvc.Join(r.Context(), code, req.Name)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	playerID := middleware.GetPlayerID(r.Context())

	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token does not belong to this session")
		return
	}

	if err := h.sessionSvc.Start(r.Context(), sessionID, playerID); err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	playerID := middleware.GetPlayerID(r.Context())

	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token does not belong to this session")
		return
	}

	view, err := h.sessionSvc.View(sessionID, playerID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeGameError maps a game rejection to an HTTP status and body.
func writeGameError(w http.ResponseWriter, err error) {
	gerr, ok := game.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch gerr.Kind {
	case game.KindValidation:
		status = http.StatusBadRequest
	case game.KindAuthorization:
		status = http.StatusForbidden
	case game.KindState:
		status = http.StatusConflict
		if gerr == game.ErrSessionNotFound {
			status = http.StatusNotFound
		}
	case game.KindIntegrity:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{
		"error": gerr.Message,
		"code":  gerr.Code,
	})
}
