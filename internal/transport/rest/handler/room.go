package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"survive/internal/service"

	"github.com/gorilla/mux"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomSvc   *service.RoomService
	playerSvc *service.PlayerService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService, playerSvc *service.PlayerService) *RoomHandler {
	return &RoomHandler{
		roomSvc:   roomSvc,
		playerSvc: playerSvc,
	}
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
	GameTimer  int    `json:"gameTimer"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.roomSvc.CreateRoom(r.Context(), &service.CreateRoomInput{
		PlayerName:   req.PlayerName,
		TimerSeconds: req.GameTimer,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"gameId":       out.Room.ID,
		"playerName":   out.Player.Name,
		"animal":       out.Player.Animal,
		"sessionToken": out.SessionToken,
		"room":         out.Room,
	})
}

// Get handles GET /v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	room, err := h.roomSvc.GetSnapshot(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// Start handles POST /v1/rooms/{id}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := currentSeat(w, r, h.playerSvc, id); !ok {
		return
	}

	room, err := h.roomSvc.StartRoom(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(room.Status)})
}

// End handles POST /v1/rooms/{id}/end
func (h *RoomHandler) End(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := currentSeat(w, r, h.playerSvc, id); !ok {
		return
	}

	room, err := h.roomSvc.EndRoom(r.Context(), id, service.EndReasonManual)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(room.Status)})
}

// JoinRequest is the request body for joining a room
type JoinRequest struct {
	PlayerName string `json:"playerName"`
}

// Join handles POST /v1/rooms/{id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.playerSvc.JoinRoom(r.Context(), &service.JoinRoomInput{
		RoomID:     id,
		PlayerName: req.PlayerName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":       out.Room.ID,
		"playerName":   out.Player.Name,
		"animal":       out.Player.Animal,
		"sessionToken": out.SessionToken,
		"room":         out.Room,
	})
}

// Leaderboard handles GET /v1/rooms/{id}/leaderboard
func (h *RoomHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	topStr := r.URL.Query().Get("top")
	top := 20
	if topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.roomSvc.Leaderboard(r.Context(), id, top)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"leaderboard": entries}
	if name := r.URL.Query().Get("player"); name != "" {
		standing, err := h.roomSvc.PlayerStanding(r.Context(), id, name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp["player"] = standing
	}

	writeJSON(w, http.StatusOK, resp)
}
