package handler

import (
	"net/http"

	"survive/internal/service"

	"github.com/gorilla/mux"
)

// ReportHandler serves finished-match and boost history
type ReportHandler struct {
	roomSvc  *service.RoomService
	boostSvc *service.BoostService
}

// NewReportHandler creates a new report handler
func NewReportHandler(roomSvc *service.RoomService, boostSvc *service.BoostService) *ReportHandler {
	return &ReportHandler{roomSvc: roomSvc, boostSvc: boostSvc}
}

// Matches handles GET /v1/rooms/{id}/matches
func (h *ReportHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	records, err := h.roomSvc.Matches(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": records})
}

// Boosts handles GET /v1/rooms/{id}/boosts
func (h *ReportHandler) Boosts(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	grants, err := h.boostSvc.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"boosts": grants})
}
