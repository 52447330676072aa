package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"partygame/internal/game"
)

// ErrorBody is the JSON error envelope returned by the API
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure
type ErrorDetail struct {
	Code      game.Kind      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// statusFor maps an error kind to an HTTP status
func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindRoomNotFound, game.KindPlayerNotFound:
		return http.StatusNotFound
	case game.KindRoomExists, game.KindNameTaken, game.KindRoomFull:
		return http.StatusConflict
	case game.KindNotHost:
		return http.StatusForbidden
	case game.KindUnknownGameType, game.KindInvalidInput, game.KindInvalidPhaseAction, game.KindInsufficientPlayers:
		return http.StatusBadRequest
	case game.KindStoreClosed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func details(ge *game.Error) map[string]any {
	d := map[string]any{}
	if ge.RoomCode != "" {
		d["roomCode"] = ge.RoomCode
	}
	if ge.PlayerID != "" {
		d["playerId"] = ge.PlayerID
	}
	if ge.GameType != "" {
		d["gameType"] = ge.GameType
	}
	if ge.Name != "" {
		d["name"] = ge.Name
	}
	if ge.Action != "" {
		d["action"] = ge.Action
	}
	if ge.Phase != "" {
		d["phase"] = ge.Phase
	}
	if ge.Required > 0 {
		d["required"] = ge.Required
		d["actual"] = ge.Actual
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

// writeError writes err as a JSON error body
func writeError(w http.ResponseWriter, err error) {
	body := ErrorBody{Error: ErrorDetail{
		Code:      game.KindInternal,
		Message:   "internal server error",
		Timestamp: time.Now().UTC(),
	}}
	status := http.StatusInternalServerError

	var ge *game.Error
	if errors.As(err, &ge) {
		status = statusFor(ge.Kind)
		body.Error.Code = ge.Kind
		body.Error.Message = ge.Error()
		body.Error.Details = details(ge)
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
