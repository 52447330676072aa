package game

// Game type identifiers accepted by the registry.
const (
	TypeBluffTrivia     = "bluff-trivia"
	TypeFibbingIt       = "fibbing-it"
	TypeWordAssociation = "word-association"
)

// PhaseName is a step of a game's phase machine.
type PhaseName string

const (
	PhaseLobby    PhaseName = "lobby"
	PhasePrompt   PhaseName = "prompt"
	PhaseChoose   PhaseName = "choose"
	PhaseReveal   PhaseName = "reveal"
	PhaseScoring  PhaseName = "scoring"
	PhaseGameOver PhaseName = "game-over"
)

// ActionType names something a player can do.
type ActionType string

const (
	ActionStart        ActionType = "start"
	ActionSubmitAnswer ActionType = "submitAnswer"
	ActionSubmitVote   ActionType = "submitVote"
)

// Phase describes one step of the phase machine. Duration is in seconds,
// zero meaning the phase is not timed.
type Phase struct {
	Name           PhaseName    `json:"name"`
	Duration       int          `json:"duration"`
	AllowedActions []ActionType `json:"allowedActions"`
}

// Allows reports whether the action may be taken during this phase.
func (p Phase) Allows(action ActionType) bool {
	for _, a := range p.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// ActionData carries the payload of a player action.
type ActionData struct {
	Answer   string `json:"answer,omitempty"`
	ChoiceID string `json:"choiceId,omitempty"`
}

// Action is a player action routed to an engine.
type Action struct {
	Type     ActionType `json:"type"`
	PlayerID string     `json:"playerId"`
	Data     ActionData `json:"data"`
}

// Result is the outcome of Engine.ProcessAction. When Valid is false, State is
// the unchanged input and Err says why.
type Result struct {
	State  State
	Events []Event
	Valid  bool
	Err    error
}

// Engine is a game's rules: a pure phase machine over an engine-owned State.
// Engines never mutate the state they are given.
type Engine interface {
	Type() string
	Initialize(players []Player) State
	CurrentPhase(state State) Phase
	ProcessAction(state State, action Action) Result
	AdvancePhase(state State) State
	PhaseEvents(state State) []Event
	IsGameOver(state State) bool
	Winners(state State) []Player
	ValidActions(state State, playerID string) []ActionType
	UpdateTimer(state State, delta int) State
	TimeLeft(state State) int
	// WithRoster refreshes the engine's copy of the players and host without
	// touching round progress.
	WithRoster(state State, players []Player, hostID string) State
	// RenamePlayer moves answers, votes and pending points recorded for
	// oldID over to newID.
	RenamePlayer(state State, oldID, newID string) State
}

// State is the opaque per-room game state. Only engines in this package
// produce values of it.
type State interface {
	GameType() string
	PhaseName() PhaseName
	Remaining() int
	Round() int
	HostID() string
	Roster() []Player
	View() StateView
	sess() *session
}

// StateView is the client-facing projection of a State.
type StateView struct {
	GameType  string    `json:"gameType"`
	Phase     PhaseName `json:"phase"`
	Round     int       `json:"round"`
	MaxRounds int       `json:"maxRounds"`
	TimeLeft  int       `json:"timeLeft"`
	PromptID  string    `json:"promptId,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	Choices   []Choice  `json:"choices,omitempty"`
	Submitted []string  `json:"submitted,omitempty"`
	Voted     []string  `json:"voted,omitempty"`
}

// Choice is an option offered during voting. The true answer's id is
// TRUE::<promptId>; every other choice is keyed by its author's player id.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// TruthChoiceID returns the choice id of a prompt's true answer.
func TruthChoiceID(promptID string) string {
	return "TRUE::" + promptID
}
