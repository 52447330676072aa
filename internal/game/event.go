package game

import "errors"

// Target selects the recipients of an event.
type Target string

const (
	TargetAll    Target = "all"
	TargetPlayer Target = "player"
	TargetHost   Target = "host"
)

// EventType names an outbound event.
type EventType string

const (
	EventPrompt     EventType = "prompt"
	EventChoices    EventType = "choices"
	EventSubmitted  EventType = "submitted"
	EventReveal     EventType = "reveal"
	EventScores     EventType = "scores"
	EventGameOver   EventType = "gameOver"
	EventTimer      EventType = "timer"
	EventError      EventType = "error"
	EventRoomUpdate EventType = "roomUpdate"
)

// Event is an outbound notification produced by an engine or the room store.
type Event struct {
	Type     EventType `json:"type"`
	Data     any       `json:"data"`
	Target   Target    `json:"target"`
	PlayerID string    `json:"playerId,omitempty"`
}

func Broadcast(t EventType, data any) Event {
	return Event{Type: t, Data: data, Target: TargetAll}
}

func ToPlayer(playerID string, t EventType, data any) Event {
	return Event{Type: t, Data: data, Target: TargetPlayer, PlayerID: playerID}
}

func ToHost(t EventType, data any) Event {
	return Event{Type: t, Data: data, Target: TargetHost}
}

// ErrorEvent wraps a rejected action for the player who sent it.
func ErrorEvent(playerID string, err error) Event {
	payload := ErrorPayload{Error: err.Error(), Code: KindInternal}
	var ge *Error
	if errors.As(err, &ge) {
		payload.Code = ge.Kind
	}
	return ToPlayer(playerID, EventError, payload)
}

// TimerEvent announces the seconds left in the current phase.
func TimerEvent(timeLeft int) Event {
	return Broadcast(EventTimer, TimerPayload{TimeLeft: timeLeft})
}

type PromptPayload struct {
	Round     int    `json:"round"`
	MaxRounds int    `json:"maxRounds"`
	PromptID  string `json:"promptId"`
	Text      string `json:"text"`
	Category  string `json:"category,omitempty"`
	Duration  int    `json:"duration"`
}

type ChoicesPayload struct {
	Choices  []Choice `json:"choices"`
	Duration int      `json:"duration"`
}

type SubmittedPayload struct {
	PlayerID string     `json:"playerId"`
	Action   ActionType `json:"action"`
	Count    int        `json:"count"`
	Total    int        `json:"total"`
}

// RevealedChoice is a choice with its author and the players who picked it.
type RevealedChoice struct {
	Choice
	AuthorID string   `json:"authorId,omitempty"`
	Truth    bool     `json:"truth"`
	Voters   []string `json:"voters"`
}

type RevealPayload struct {
	PromptID string            `json:"promptId"`
	Answer   string            `json:"answer,omitempty"`
	Choices  []RevealedChoice  `json:"choices,omitempty"`
	Words    map[string]string `json:"words,omitempty"`
}

type ScoreLine struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Delta    int    `json:"delta"`
}

type ScoresPayload struct {
	Round  int         `json:"round"`
	Scores []ScoreLine `json:"scores"`
}

type GameOverPayload struct {
	Winners []Player `json:"winners"`
}

type TimerPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	Code  Kind   `json:"code"`
}
