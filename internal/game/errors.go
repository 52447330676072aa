package game

import (
	"fmt"
	"strings"
)

// Kind classifies a domain error. The string value is what clients see as the error code.
type Kind string

const (
	KindRoomNotFound        Kind = "ROOM_NOT_FOUND"
	KindPlayerNotFound      Kind = "PLAYER_NOT_FOUND"
	KindRoomFull            Kind = "ROOM_FULL"
	KindRoomExists          Kind = "ROOM_EXISTS"
	KindNameTaken           Kind = "PLAYER_NAME_TAKEN"
	KindUnknownGameType     Kind = "UNKNOWN_GAME_TYPE"
	KindInvalidPhaseAction  Kind = "INVALID_ACTION"
	KindInsufficientPlayers Kind = "INSUFFICIENT_PLAYERS"
	KindNotHost             Kind = "PLAYER_NOT_HOST"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindStoreClosed         Kind = "STORE_CLOSED"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// Error is the typed error returned by the room engine. Only the fields that
// make sense for the kind are populated.
type Error struct {
	Kind     Kind
	Message  string
	RoomCode string
	PlayerID string
	Action   ActionType
	Phase    PhaseName
	Name     string
	GameType string
	Required int
	Actual   int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRoomNotFound)
// works for errors built with RoomNotFound(code).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Severity reports "low" for mistakes a player can correct and retry,
// "high" for everything else.
func (e *Error) Severity() string {
	switch e.Kind {
	case KindInvalidPhaseAction, KindInvalidInput, KindNameTaken, KindInsufficientPlayers:
		return "low"
	default:
		return "high"
	}
}

var (
	ErrRoomNotFound        = &Error{Kind: KindRoomNotFound, Message: "room not found"}
	ErrPlayerNotFound      = &Error{Kind: KindPlayerNotFound, Message: "player not found"}
	ErrRoomFull            = &Error{Kind: KindRoomFull, Message: "room is full"}
	ErrRoomExists          = &Error{Kind: KindRoomExists, Message: "room already exists"}
	ErrNameTaken           = &Error{Kind: KindNameTaken, Message: "a connected player already uses that name"}
	ErrUnknownGameType     = &Error{Kind: KindUnknownGameType, Message: "unknown game type"}
	ErrInvalidPhaseAction  = &Error{Kind: KindInvalidPhaseAction, Message: "action not allowed in this phase"}
	ErrInsufficientPlayers = &Error{Kind: KindInsufficientPlayers, Message: "not enough players to start"}
	ErrNotHost             = &Error{Kind: KindNotHost, Message: "only the host can do that"}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrStoreClosed         = &Error{Kind: KindStoreClosed, Message: "room store is closed"}
)

func RoomNotFound(code string) *Error {
	return &Error{Kind: KindRoomNotFound, RoomCode: code, Message: fmt.Sprintf("room %s not found", code)}
}

func PlayerNotFound(code, playerID string) *Error {
	msg := fmt.Sprintf("player %s not found", playerID)
	if code != "" {
		msg += " in room " + code
	}
	return &Error{Kind: KindPlayerNotFound, RoomCode: code, PlayerID: playerID, Message: msg}
}

func RoomFull(code string, max int) *Error {
	return &Error{
		Kind:     KindRoomFull,
		RoomCode: code,
		Required: max,
		Actual:   max,
		Message:  fmt.Sprintf("room %s is full (%d players)", code, max),
	}
}

func NameTaken(code, name string) *Error {
	return &Error{
		Kind:     KindNameTaken,
		RoomCode: code,
		Name:     name,
		Message:  fmt.Sprintf("name %q is already taken in room %s", name, code),
	}
}

func UnknownGameType(gameType string) *Error {
	return &Error{Kind: KindUnknownGameType, GameType: gameType, Message: fmt.Sprintf("unknown game type %q", gameType)}
}

func InvalidPhaseAction(action ActionType, phase PhaseName) *Error {
	return &Error{
		Kind:    KindInvalidPhaseAction,
		Action:  action,
		Phase:   phase,
		Message: fmt.Sprintf("action %s is not allowed during %s", action, phase),
	}
}

func InsufficientPlayers(required, actual int) *Error {
	return &Error{
		Kind:     KindInsufficientPlayers,
		Required: required,
		Actual:   actual,
		Message:  fmt.Sprintf("need at least %d players to start, have %d", required, actual),
	}
}

func NotHost(playerID string) *Error {
	return &Error{Kind: KindNotHost, PlayerID: playerID, Message: "only the host can start the game"}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}
