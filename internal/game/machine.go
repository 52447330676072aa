package game

import (
	"math/rand/v2"
	"sort"
	"strings"
)

// Scoring holds the point values awarded by the engines
type Scoring struct {
	CorrectAnswer int
	BluffPoints   int
	VotePoints    int
	MatchPoints   int
}

// DefaultScoring returns the standard point values
func DefaultScoring() Scoring {
	return Scoring{
		CorrectAnswer: 1000,
		BluffPoints:   500,
		VotePoints:    500,
		MatchPoints:   100,
	}
}

// Options configures an engine. Zero values fall back to defaults.
type Options struct {
	MaxRounds  int
	MinPlayers int
	// Durations overrides phase lengths in seconds, keyed by phase name.
	Durations map[PhaseName]int
	Scoring   Scoring
	Prompts   []Prompt
	// IntN picks a random index in [0, n). Tests replace it for determinism.
	IntN func(n int) int
}

const (
	defaultMaxRounds  = 5
	defaultMinPlayers = 2
	maxWinners        = 3
)

// machine is the phase machine every engine shares:
// lobby -> prompt -> ... -> scoring -> (prompt | game-over).
type machine struct {
	gameType string
	phases   []Phase
	opts     Options
}

func newMachine(gameType string, phases []Phase, opts Options) machine {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = defaultMaxRounds
	}
	if opts.MinPlayers <= 0 {
		opts.MinPlayers = defaultMinPlayers
	}
	if opts.Scoring == (Scoring{}) {
		opts.Scoring = DefaultScoring()
	}
	if opts.IntN == nil {
		opts.IntN = rand.IntN
	}
	if len(opts.Prompts) == 0 {
		opts.Prompts = []Prompt{{ID: gameType + "-default", Text: "Say something surprising"}}
	}

	ps := make([]Phase, len(phases))
	for i, p := range phases {
		if d, ok := opts.Durations[p.Name]; ok && d > 0 {
			p.Duration = d
		}
		ps[i] = p
	}
	return machine{gameType: gameType, phases: ps, opts: opts}
}

func (m machine) Type() string { return m.gameType }

func (m machine) Initialize(players []Player) State {
	s := &session{
		gameType:  m.gameType,
		phase:     PhaseLobby,
		maxRounds: m.opts.MaxRounds,
		players:   clonePlayers(players),
		used:      make(map[string]bool),
	}
	if len(players) > 0 {
		s.hostID = players[0].ID
	}
	return s
}

func (m machine) phase(name PhaseName) Phase {
	for _, p := range m.phases {
		if p.Name == name {
			return p
		}
	}
	return Phase{Name: name}
}

func (m machine) CurrentPhase(state State) Phase {
	return m.phase(state.PhaseName())
}

func (m machine) IsGameOver(state State) bool {
	return state.PhaseName() == PhaseGameOver
}

// Winners returns up to three players by descending score. Ties keep join order.
func (m machine) Winners(state State) []Player {
	ranked := rank(state.sess().players)
	if len(ranked) > maxWinners {
		ranked = ranked[:maxWinners]
	}
	return ranked
}

func (m machine) TimeLeft(state State) int {
	return state.Remaining()
}

// UpdateTimer subtracts delta seconds, never going below zero.
func (m machine) UpdateTimer(state State, delta int) State {
	s := state.sess().clone()
	s.timeLeft -= delta
	if s.timeLeft < 0 {
		s.timeLeft = 0
	}
	return s
}

func (m machine) WithRoster(state State, players []Player, hostID string) State {
	s := state.sess().clone()
	s.players = clonePlayers(players)
	s.hostID = hostID
	return s
}

// RenamePlayer carries a player's round progress over to a new id.
func (m machine) RenamePlayer(state State, oldID, newID string) State {
	s := state.sess().clone()
	for i := range s.players {
		if s.players[i].ID == oldID {
			s.players[i].ID = newID
		}
	}
	if s.hostID == oldID {
		s.hostID = newID
	}
	if s.current != nil {
		s.current.rekey(oldID, newID)
	}
	return s
}

func (m machine) ValidActions(state State, playerID string) []ActionType {
	s := state.sess()
	if !s.hasPlayer(playerID) {
		return nil
	}
	var out []ActionType
	for _, a := range m.phase(s.phase).AllowedActions {
		switch a {
		case ActionStart:
			if playerID != s.hostID {
				continue
			}
		case ActionSubmitAnswer:
			if s.current != nil && s.current.answers[playerID] != "" {
				continue
			}
		case ActionSubmitVote:
			if s.current != nil && s.current.votes[playerID] != "" {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// next returns the phase that follows the current one. Lobby only moves on
// through start and game-over is terminal, so both return themselves.
func (m machine) next(s *session) PhaseName {
	switch s.phase {
	case PhaseLobby, PhaseGameOver:
		return s.phase
	case PhaseScoring:
		if s.round < s.maxRounds {
			return PhasePrompt
		}
		return PhaseGameOver
	}
	for i, p := range m.phases {
		if p.Name == s.phase && i+1 < len(m.phases) {
			return m.phases[i+1].Name
		}
	}
	return PhaseGameOver
}

// enter switches s into the named phase, resetting the clock and opening a
// new round when the phase is prompt.
func (m machine) enter(s *session, name PhaseName) {
	s.phase = name
	s.timeLeft = m.phase(name).Duration
	if name == PhasePrompt {
		s.round++
		s.current = newRound(s.round, m.pickPrompt(s))
	}
}

// advance returns a copy of s moved to the next phase. onEnter runs after the
// switch so engines can build choices or score the round.
func (m machine) advance(s *session, onEnter func(*session)) *session {
	ns := s.clone()
	to := m.next(ns)
	if to == ns.phase {
		return ns
	}
	m.enter(ns, to)
	if onEnter != nil {
		onEnter(ns)
	}
	return ns
}

// pickPrompt draws an unused prompt. Once every prompt has been used the
// used set is cleared and the bank starts over.
func (m machine) pickPrompt(s *session) Prompt {
	if s.used == nil {
		s.used = make(map[string]bool)
	}
	var fresh []Prompt
	for _, p := range m.opts.Prompts {
		if !s.used[p.ID] {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		clear(s.used)
		fresh = m.opts.Prompts
	}
	p := fresh[m.opts.IntN(len(fresh))]
	s.used[p.ID] = true
	return p
}

func (m machine) shuffle(choices []Choice) {
	for i := len(choices) - 1; i > 0; i-- {
		j := m.opts.IntN(i + 1)
		choices[i], choices[j] = choices[j], choices[i]
	}
}

// start handles the start action shared by every engine.
func (m machine) start(state State, action Action, events func(State) []Event) Result {
	s := state.sess()
	if s.phase != PhaseLobby {
		return rejected(state, InvalidPhaseAction(action.Type, s.phase))
	}
	if action.PlayerID != s.hostID {
		return rejected(state, NotHost(action.PlayerID))
	}
	if len(s.players) < m.opts.MinPlayers {
		return rejected(state, InsufficientPlayers(m.opts.MinPlayers, len(s.players)))
	}
	ns := s.clone()
	m.enter(ns, PhasePrompt)
	return accepted(ns, events(ns))
}

// guard checks the actor is rostered and the phase allows the action.
func (m machine) guard(s *session, action Action) error {
	if !s.hasPlayer(action.PlayerID) {
		return PlayerNotFound("", action.PlayerID)
	}
	if !m.phase(s.phase).Allows(action.Type) || s.current == nil {
		return InvalidPhaseAction(action.Type, s.phase)
	}
	return nil
}

// submitText records a text answer after the common checks.
func (m machine) submitText(s *session, action Action, maxLen int) (*session, error) {
	text := strings.TrimSpace(action.Data.Answer)
	if text == "" {
		return nil, InvalidInput("answer cannot be empty")
	}
	if len([]rune(text)) > maxLen {
		return nil, InvalidInput("answer must be at most %d characters", maxLen)
	}
	if _, done := s.current.answers[action.PlayerID]; done {
		return nil, InvalidInput("you have already submitted an answer")
	}
	ns := s.clone()
	ns.current.answers[action.PlayerID] = text
	ns.current.order = append(ns.current.order, action.PlayerID)
	return ns, nil
}

func (m machine) promptEvent(s *session) Event {
	r := s.current
	return Broadcast(EventPrompt, PromptPayload{
		Round:     s.round,
		MaxRounds: s.maxRounds,
		PromptID:  r.prompt.ID,
		Text:      r.prompt.Text,
		Category:  r.prompt.Category,
		Duration:  s.timeLeft,
	})
}

func (m machine) scoresEvent(s *session) Event {
	lines := make([]ScoreLine, 0, len(s.players))
	for _, p := range rank(s.players) {
		lines = append(lines, ScoreLine{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Delta:    s.current.deltas[p.ID],
		})
	}
	return Broadcast(EventScores, ScoresPayload{Round: s.round, Scores: lines})
}

func (m machine) gameOverEvent(s *session) Event {
	return Broadcast(EventGameOver, GameOverPayload{Winners: m.Winners(s)})
}

// submissionEvents tells the room about progress and acknowledges the sender.
func submissionEvents(s *session, playerID string, action ActionType, count int) []Event {
	return []Event{
		Broadcast(EventRoomUpdate, s.View()),
		ToPlayer(playerID, EventSubmitted, SubmittedPayload{
			PlayerID: playerID,
			Action:   action,
			Count:    count,
			Total:    len(s.players),
		}),
	}
}

func rejected(state State, err error) Result {
	return Result{State: state, Valid: false, Err: err}
}

func accepted(s *session, events []Event) Result {
	return Result{State: s, Events: events, Valid: true}
}

func rank(players []Player) []Player {
	out := clonePlayers(players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
