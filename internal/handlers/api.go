package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"partygame/internal/game"
	"partygame/internal/rooms"
	"partygame/internal/store"
)

// CreateRoomRequest is the body of POST /rooms
type CreateRoomRequest struct {
	GameType string `json:"gameType"`
	Code     string `json:"code,omitempty"`
}

// RoomSummary is one entry of GET /rooms
type RoomSummary struct {
	Code         string         `json:"code"`
	GameType     string         `json:"gameType"`
	Phase        game.PhaseName `json:"phase"`
	Players      int            `json:"players"`
	Connected    int            `json:"connected"`
	LastActivity time.Time      `json:"lastActivity"`
}

// CreateRoom creates a room for the requested game type
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, game.InvalidInput("invalid request body"))
		return
	}
	if req.GameType == "" {
		writeError(w, game.InvalidInput("gameType is required"))
		return
	}

	room, err := h.gateway.CreateRoom(req.Code, req.GameType)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/rooms/"+room.Code)
	writeJSON(w, http.StatusCreated, room.View())
}

// ListRooms lists every room
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	all := h.store.ListRooms()
	out := make([]RoomSummary, 0, len(all))
	for _, room := range all {
		out = append(out, RoomSummary{
			Code:         room.Code,
			GameType:     room.GameType,
			Phase:        room.Phase,
			Players:      len(room.Players),
			Connected:    room.ConnectedCount(),
			LastActivity: room.LastActivity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

// GetRoom returns one room's snapshot
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room.View())
}

// DeleteRoom closes a room
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	code, err := rooms.NormalizeRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.gateway.DeleteRoom(code) {
		writeError(w, game.RoomNotFound(code))
		return
	}
	log.Info().Str("room", code).Msg("room closed via API")
	w.WriteHeader(http.StatusNoContent)
}

// ListGames lists the registered game types
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": h.store.Registry().Types()})
}

// Stats reports room and player counts
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

func (h *Handler) roomFromPath(r *http.Request) (*store.Room, error) {
	code, err := rooms.NormalizeRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		return nil, err
	}
	return h.store.GetRoom(code)
}
