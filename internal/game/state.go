package game

import "maps"

// session is the one concrete State shared by all engines. Engines clone it
// before every change so snapshots handed out earlier stay valid.
type session struct {
	gameType  string
	phase     PhaseName
	round     int
	maxRounds int
	timeLeft  int
	players   []Player
	hostID    string
	used      map[string]bool
	current   *round
}

// round is the per-round working set.
type round struct {
	number  int
	prompt  Prompt
	answers map[string]string
	order   []string
	votes   map[string]string
	choices []Choice
	deltas  map[string]int
}

func newRound(number int, prompt Prompt) *round {
	return &round{
		number:  number,
		prompt:  prompt,
		answers: make(map[string]string),
		votes:   make(map[string]string),
		deltas:  make(map[string]int),
	}
}

func (r *round) clone() *round {
	if r == nil {
		return nil
	}
	return &round{
		number:  r.number,
		prompt:  r.prompt,
		answers: maps.Clone(r.answers),
		order:   append([]string(nil), r.order...),
		votes:   maps.Clone(r.votes),
		choices: append([]Choice(nil), r.choices...),
		deltas:  maps.Clone(r.deltas),
	}
}

// rekey moves everything recorded under oldID to newID, including votes
// cast for oldID's answer.
func (r *round) rekey(oldID, newID string) {
	if answer, ok := r.answers[oldID]; ok {
		delete(r.answers, oldID)
		r.answers[newID] = answer
	}
	for i, id := range r.order {
		if id == oldID {
			r.order[i] = newID
		}
	}
	if choice, ok := r.votes[oldID]; ok {
		delete(r.votes, oldID)
		r.votes[newID] = choice
	}
	for voter, choice := range r.votes {
		if choice == oldID {
			r.votes[voter] = newID
		}
	}
	for i := range r.choices {
		if r.choices[i].ID == oldID {
			r.choices[i].ID = newID
		}
	}
	if d, ok := r.deltas[oldID]; ok {
		delete(r.deltas, oldID)
		r.deltas[newID] = d
	}
}

func (s *session) clone() *session {
	c := *s
	c.players = clonePlayers(s.players)
	c.used = maps.Clone(s.used)
	c.current = s.current.clone()
	return &c
}

func (s *session) sess() *session { return s }

func (s *session) GameType() string     { return s.gameType }
func (s *session) PhaseName() PhaseName { return s.phase }
func (s *session) Remaining() int       { return s.timeLeft }
func (s *session) Round() int           { return s.round }
func (s *session) HostID() string       { return s.hostID }
func (s *session) Roster() []Player     { return clonePlayers(s.players) }

func (s *session) View() StateView {
	v := StateView{
		GameType:  s.gameType,
		Phase:     s.phase,
		Round:     s.round,
		MaxRounds: s.maxRounds,
		TimeLeft:  s.timeLeft,
	}
	r := s.current
	if r == nil || s.phase == PhaseLobby || s.phase == PhaseGameOver {
		return v
	}
	v.PromptID = r.prompt.ID
	v.Prompt = r.prompt.Text
	v.Submitted = append([]string(nil), r.order...)
	if s.phase == PhaseChoose || s.phase == PhaseReveal {
		v.Choices = append([]Choice(nil), r.choices...)
	}
	for _, p := range s.players {
		if _, ok := r.votes[p.ID]; ok {
			v.Voted = append(v.Voted, p.ID)
		}
	}
	return v
}

func (s *session) hasPlayer(id string) bool {
	return indexOfPlayer(s.players, id) >= 0
}

func (s *session) player(id string) (Player, bool) {
	if i := indexOfPlayer(s.players, id); i >= 0 {
		return s.players[i], true
	}
	return Player{}, false
}

// applyDeltas adds the round's points to the roster scores.
func (s *session) applyDeltas() {
	if s.current == nil {
		return
	}
	for i := range s.players {
		s.players[i].Score += s.current.deltas[s.players[i].ID]
	}
}
