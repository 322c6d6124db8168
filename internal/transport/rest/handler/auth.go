package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"survive/internal/service"
	"survive/internal/transport/rest/middleware"
)

// AuthHandler handles session endpoints
type AuthHandler struct {
	authSvc   *service.AuthService
	playerSvc *service.PlayerService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, playerSvc *service.PlayerService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, playerSvc: playerSvc}
}

// VerifyRequest is the request body for checking a stored session token
type VerifyRequest struct {
	SessionToken string `json:"sessionToken"`
}

// Verify handles POST /v1/sessions/verify. Clients call it before reopening a socket
// to learn whether resumeSession can still succeed.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionToken == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.authSvc.ValidateSessionToken(req.SessionToken)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"valid": false})
		return
	}

	sid, err := h.playerSvc.SessionOf(claims.RoomID, claims.PlayerName)
	if err != nil || sid != claims.SessionID {
		writeJSON(w, http.StatusOK, map[string]interface{}{"valid": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      true,
		"gameId":     claims.RoomID,
		"playerName": claims.PlayerName,
	})
}

// currentSeat checks that the request's session token belongs to room id and is still
// the live session of its seat. A token rotated out by a resume, or one for an evicted
// seat, is rejected. It returns the acting player's name.
func currentSeat(w http.ResponseWriter, r *http.Request, players *service.PlayerService, id string) (string, bool) {
	ctx := r.Context()
	if middleware.GetRoomID(ctx) != id {
		writeError(w, http.StatusForbidden, "session does not belong to this room")
		return "", false
	}
	name := middleware.GetPlayerName(ctx)

	sid, err := players.SessionOf(id, name)
	if errors.Is(err, service.ErrPlayerNotFound) {
		err = service.ErrInvalidSession
	}
	if err != nil {
		writeServiceError(w, err)
		return "", false
	}
	if sid != middleware.GetSessionID(ctx) {
		writeServiceError(w, service.ErrInvalidSession)
		return "", false
	}
	return name, true
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps a game error to its status and stable code
func writeServiceError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(service.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{
		"error": service.MessageOf(err),
		"code":  service.CodeOf(err),
	})
}
